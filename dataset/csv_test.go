/*
csv_test.go - Roster and survey CSV parsing tests

ORGANIZATION:
  1. Provider roster  - header normalization, optional columns, errors
  2. Market table     - curve columns, currency formatting
  3. Synonym map      - header detection, blank rows
*/
package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/engine"
)

// =============================================================================
// 1. PROVIDER ROSTER
// =============================================================================

func TestReadProvidersHeaderDriven(t *testing.T) {
	// Column order is arbitrary and header casing is forgiven.
	csv := strings.Join([]string{
		"Specialty,Provider ID,Name,Clinical FTE,Total FTE,Base Salary,Total wRVUs,Current CF",
		"Cardiology,p1,Dr. One,0.9,1.0,\"$250,000\",5100,46.5",
	}, "\n")

	providers, err := ReadProviders(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, providers, 1)

	p := providers[0]
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Dr. One", p.Name)
	assert.Equal(t, "Cardiology", p.Specialty)
	assert.Equal(t, 0.9, p.ClinicalFTE)
	assert.Equal(t, 250000.0, p.BaseSalary)
	assert.Equal(t, 5100.0, p.TotalWRVUs)
	assert.Equal(t, 46.5, p.CurrentCF)
	assert.Equal(t, engine.ModelBase, p.Model)
}

func TestReadProvidersOptionalColumns(t *testing.T) {
	csv := strings.Join([]string{
		"provider_id,specialty,clinical_fte_salary,tenure_months,on_leave,model",
		"p1,Cardiology,240000,18,yes,productivity",
		"p2,Cardiology,,,no,",
	}, "\n")

	providers, err := ReadProviders(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, providers, 2)

	p1 := providers[0]
	require.NotNil(t, p1.ClinicalFTESalary)
	assert.Equal(t, 240000.0, *p1.ClinicalFTESalary)
	assert.Equal(t, 18.0, p1.TenureMonths)
	assert.True(t, p1.OnLeave)
	assert.Equal(t, engine.ModelProductivity, p1.Model)

	p2 := providers[1]
	assert.Nil(t, p2.ClinicalFTESalary)
	assert.Zero(t, p2.TenureMonths)
	assert.False(t, p2.OnLeave)
	assert.Equal(t, engine.ModelBase, p2.Model)
}

func TestReadProvidersBlankNumbersAreZero(t *testing.T) {
	csv := "provider_id,base_salary,total_wrvus\np1,,"
	providers, err := ReadProviders(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Zero(t, providers[0].BaseSalary)
	assert.Zero(t, providers[0].TotalWRVUs)
}

func TestReadProvidersRequiresID(t *testing.T) {
	csv := "provider_id,specialty\n,Cardiology"
	_, err := ReadProviders(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider_id is required")
}

func TestReadProvidersReportsRowAndColumn(t *testing.T) {
	csv := "provider_id,base_salary\np1,not-a-number"
	_, err := ReadProviders(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "base_salary")
}

func TestReadProvidersEmptyInput(t *testing.T) {
	_, err := ReadProviders(strings.NewReader(""))
	require.Error(t, err)
}

// =============================================================================
// 2. MARKET TABLE
// =============================================================================

func marketCSV() string {
	return strings.Join([]string{
		"specialty,provider_type,tcc_p25,tcc_p50,tcc_p75,tcc_p90,wrvu_p25,wrvu_p50,wrvu_p75,wrvu_p90,cf_p25,cf_p50,cf_p75,cf_p90",
		"Cardiology,Physician,\"$180,000\",\"$220,000\",\"$260,000\",\"$300,000\",4000,4800,5600,6200,42,46,50,54",
	}, "\n")
}

func TestReadMarketRows(t *testing.T) {
	rows, err := ReadMarketRows(strings.NewReader(marketCSV()))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	m := rows[0]
	assert.Equal(t, "Cardiology", m.Specialty)
	assert.Equal(t, "Physician", m.ProviderType)
	assert.Equal(t, engine.MarketCurve{P25: 180000, P50: 220000, P75: 260000, P90: 300000}, m.TCC)
	assert.Equal(t, engine.MarketCurve{P25: 4000, P50: 4800, P75: 5600, P90: 6200}, m.WRVU)
	assert.Equal(t, engine.MarketCurve{P25: 42, P50: 46, P75: 50, P90: 54}, m.CF)
}

func TestReadMarketRowsRequiresSpecialty(t *testing.T) {
	csv := "specialty,tcc_p25\n,180000"
	_, err := ReadMarketRows(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specialty is required")
}

func TestReadMarketRowsMissingCurveColumnsAreZero(t *testing.T) {
	// A survey without CF columns still loads; downstream validation
	// decides whether the row is usable.
	csv := "specialty,tcc_p25,tcc_p50,tcc_p75,tcc_p90\nCardiology,180000,220000,260000,300000"
	rows, err := ReadMarketRows(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Zero(t, rows[0].CF.P50)
	assert.Zero(t, rows[0].WRVU.P50)
}

func TestReadMarketRowsBadNumberNamesColumn(t *testing.T) {
	csv := "specialty,cf_p50\nCardiology,forty-six"
	_, err := ReadMarketRows(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cf_p50")
}

// =============================================================================
// 3. SYNONYM MAP
// =============================================================================

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synonyms.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSynonymsWithHeader(t *testing.T) {
	path := writeTempCSV(t, strings.Join([]string{
		"alias,canonical",
		"Heart Medicine,Cardiology",
		"OB/GYN,Obstetrics and Gynecology",
	}, "\n"))

	synonyms, err := LoadSynonymsCSV(path)
	require.NoError(t, err)
	assert.Len(t, synonyms, 2)
	assert.Equal(t, "Cardiology", synonyms["Heart Medicine"])
	assert.Equal(t, "Obstetrics and Gynecology", synonyms["OB/GYN"])
}

func TestLoadSynonymsWithoutHeader(t *testing.T) {
	path := writeTempCSV(t, "Heart Medicine,Cardiology\n")
	synonyms, err := LoadSynonymsCSV(path)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", synonyms["Heart Medicine"])
}

func TestLoadSynonymsSkipsBlankPairs(t *testing.T) {
	path := writeTempCSV(t, "Heart Medicine,Cardiology\n,\n")
	synonyms, err := LoadSynonymsCSV(path)
	require.NoError(t, err)
	assert.Len(t, synonyms, 1)
}

func TestLoadSynonymsRejectsShortRow(t *testing.T) {
	path := writeTempCSV(t, "just-one-column\n")
	_, err := LoadSynonymsCSV(path)
	require.Error(t, err)
}
