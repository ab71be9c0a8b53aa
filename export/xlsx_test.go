/*
xlsx_test.go - Workbook export tests

Writes workbooks to a temp dir and reads them back cell by cell.
*/
package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/optimizer"
)

func batchFixture() *engine.BatchResults {
	return &engine.BatchResults{
		Rows: []engine.BatchRow{
			{
				ProviderID:       "p1",
				ProviderName:     "Dr. One",
				Specialty:        "Cardiology",
				ScenarioName:     "Market median",
				MatchStatus:      engine.MatchExact,
				MatchedSpecialty: "Cardiology",
				RiskLevel:        engine.RiskLow,
				Result: &engine.ScenarioResult{
					CurrentTCC: 225000,
					ModeledTCC: 230000,
					ModeledCF:  46,
				},
			},
			{
				ProviderID:   "p2",
				ProviderName: "Dr. Two",
				Specialty:    "Unknownology",
				ScenarioName: "Market median",
				MatchStatus:  engine.MatchMissing,
				RiskLevel:    engine.RiskMedium,
				Warnings:     []string{"No market match", "Specialty missing from survey"},
			},
		},
		ProviderCount: 2,
		ScenarioCount: 1,
		MissingCount:  1,
	}
}

func TestWriteBatchXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xlsx")
	require.NoError(t, WriteBatchXLSX(path, batchFixture()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	sheet, ok := f.Sheet["Scenario Results"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3) // header + two rows

	assert.Equal(t, "Provider ID", sheet.Rows[0].Cells[0].String())

	matched := sheet.Rows[1].Cells
	assert.Equal(t, "p1", matched[0].String())
	assert.Equal(t, "exact", matched[5].String())
	tcc, err := matched[8].Float()
	require.NoError(t, err)
	assert.Equal(t, 225000.0, tcc)

	missing := sheet.Rows[2].Cells
	assert.Equal(t, "p2", missing[0].String())
	assert.Equal(t, "missing", missing[5].String())
	// Numeric columns stay blank without a result; warnings land in the
	// last column joined with semicolons.
	assert.Equal(t, "", missing[8].String())
	assert.Equal(t, "No market match; Specialty missing from survey", missing[17].String())
}

func runFixture() *optimizer.RunResult {
	return &optimizer.RunResult{
		RunID: "r1",
		Specialties: []optimizer.SpecialtyResult{
			{
				Specialty:     "Cardiology",
				CurrentCF:     44,
				RecommendedCF: 46,
				PercentChange: 4.5,
				Action:        optimizer.ActionIncrease,
				Status:        optimizer.StatusYellow,
				Constraints:   []string{optimizer.ConstraintAtSearchBound},
				Explanation:   optimizer.Explanation{Headline: "Raise CF toward market"},
				IncludedCount: 1,
				ExcludedCount: 1,
				Providers: []optimizer.ProviderContext{
					{
						ProviderID:   "p1",
						ProviderName: "Dr. One",
						Included:     true,
						BasisFTE:     1,
						WRVUs:        5000,
					},
					{
						ProviderID:       "p2",
						ProviderName:     "Dr. Two",
						Included:         false,
						ExclusionReasons: []optimizer.ExclusionReason{optimizer.ReasonOnLeave, optimizer.ReasonLowFTE},
					},
				},
			},
		},
	}
}

func TestWriteRunXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, WriteRunXLSX(path, runFixture()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	summary, ok := f.Sheet["Recommendations"]
	require.True(t, ok)
	require.Len(t, summary.Rows, 2)

	row := summary.Rows[1].Cells
	assert.Equal(t, "Cardiology", row[0].String())
	assert.Equal(t, "INCREASE", row[1].String())
	assert.Equal(t, "YELLOW", row[2].String())
	assert.Equal(t, "at_search_bound", row[13].String())
	assert.Equal(t, "Raise CF toward market", row[14].String())

	audit, ok := f.Sheet["Provider Detail"]
	require.True(t, ok)
	require.Len(t, audit.Rows, 3)

	excluded := audit.Rows[2].Cells
	assert.Equal(t, "p2", excluded[1].String())
	assert.False(t, excluded[3].Bool())
	assert.Equal(t, "on_leave; low_fte", excluded[4].String())
}
