/*
compare_test.go - Run comparison tests

ORGANIZATION:
  1. Input validation  - run count and empty-run guards
  2. Summaries         - per-run roll-ups and labeling
  3. Specialty table   - cell placement and spreads
  4. Pair deltas       - baseline-relative differences
  5. Narrative         - templated sentence output
*/
package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/comp-engine/optimizer"
)

func specialty(name string, currentCF, recommendedCF, spend float64, action optimizer.Action) optimizer.SpecialtyResult {
	return optimizer.SpecialtyResult{
		Specialty:     name,
		CurrentCF:     currentCF,
		RecommendedCF: recommendedCF,
		PercentChange: (recommendedCF - currentCF) / currentCF * 100,
		SpendImpact:   spend,
		Action:        action,
		Status:        optimizer.StatusGreen,
	}
}

func runA() *optimizer.RunResult {
	return &optimizer.RunResult{
		RunID:        "run-a",
		ScenarioName: "Conservative",
		Specialties: []optimizer.SpecialtyResult{
			specialty("Cardiology", 44, 46, 120000, optimizer.ActionIncrease),
			specialty("Family Medicine", 50, 50, 0, optimizer.ActionHold),
		},
		Totals: optimizer.RunTotals{
			SpendImpact:        120000,
			IncentiveDollars:   400000,
			MeanTCCPercentile:  52,
			AlignedSpecialties: 1,
		},
	}
}

func runB() *optimizer.RunResult {
	return &optimizer.RunResult{
		RunID: "run-b",
		Specialties: []optimizer.SpecialtyResult{
			specialty("Cardiology", 44, 48, 200000, optimizer.ActionIncrease),
			specialty("Orthopedic Surgery", 60, 57, -50000, optimizer.ActionDecrease),
		},
		Totals: optimizer.RunTotals{
			SpendImpact:        150000,
			IncentiveDollars:   430000,
			MeanTCCPercentile:  55,
			AlignedSpecialties: 2,
		},
	}
}

func inputs(runs ...*optimizer.RunResult) []RunInput {
	out := make([]RunInput, len(runs))
	for i, r := range runs {
		out[i] = RunInput{Run: r}
	}
	return out
}

// =============================================================================
// 1. INPUT VALIDATION
// =============================================================================

func TestCompareRejectsSingleRun(t *testing.T) {
	_, err := CompareRuns(inputs(runA()))
	require.ErrorIs(t, err, ErrTooFewRuns)
}

func TestCompareRejectsFiveRuns(t *testing.T) {
	_, err := CompareRuns(inputs(runA(), runB(), runA(), runB(), runA()))
	require.ErrorIs(t, err, ErrTooManyRuns)
}

func TestCompareRejectsEmptyRun(t *testing.T) {
	empty := &optimizer.RunResult{RunID: "empty"}
	_, err := CompareRuns(inputs(runA(), empty))
	require.ErrorIs(t, err, ErrEmptyRun)

	_, err = CompareRuns([]RunInput{{Run: runA()}, {Run: nil}})
	require.ErrorIs(t, err, ErrEmptyRun)
}

// =============================================================================
// 2. SUMMARIES
// =============================================================================

func TestSummariesCountActions(t *testing.T) {
	res, err := CompareRuns(inputs(runA(), runB()))
	require.NoError(t, err)
	require.Len(t, res.Runs, 2)

	a := res.Runs[0]
	assert.Equal(t, "run-a", a.RunID)
	assert.Equal(t, 2, a.SpecialtyCount)
	assert.Equal(t, 1, a.Increases)
	assert.Equal(t, 1, a.Holds)
	assert.Equal(t, 0, a.Decreases)

	b := res.Runs[1]
	assert.Equal(t, 1, b.Increases)
	assert.Equal(t, 1, b.Decreases)
}

func TestLabelFallbackChain(t *testing.T) {
	// Explicit label wins, then scenario name, then a positional letter.
	res, err := CompareRuns([]RunInput{
		{Label: "baseline", Run: runA()},
		{Run: runB()},
	})
	require.NoError(t, err)
	assert.Equal(t, "baseline", res.Runs[0].Label)
	assert.Equal(t, "B", res.Runs[1].Label)

	res, err = CompareRuns(inputs(runA(), runB()))
	require.NoError(t, err)
	assert.Equal(t, "Conservative", res.Runs[0].Label, "scenario name fills a blank label")
}

// =============================================================================
// 3. SPECIALTY TABLE
// =============================================================================

func TestSpecialtyTableCoversUnionOfRuns(t *testing.T) {
	res, err := CompareRuns(inputs(runA(), runB()))
	require.NoError(t, err)

	require.Len(t, res.Specialties, 3)
	assert.Equal(t, "Cardiology", res.Specialties[0].Specialty)
	assert.Equal(t, "Family Medicine", res.Specialties[1].Specialty)
	assert.Equal(t, "Orthopedic Surgery", res.Specialties[2].Specialty)

	// Family Medicine only exists in run A.
	fm := res.Specialties[1]
	assert.True(t, fm.Cells[0].Present)
	assert.False(t, fm.Cells[1].Present)

	ortho := res.Specialties[2]
	assert.False(t, ortho.Cells[0].Present)
	assert.True(t, ortho.Cells[1].Present)
	assert.Equal(t, 57.0, ortho.Cells[1].RecommendedCF)
}

func TestSpreadsIgnoreAbsentCells(t *testing.T) {
	res, err := CompareRuns(inputs(runA(), runB()))
	require.NoError(t, err)

	cardio := res.Specialties[0]
	assert.InDelta(t, 2.0, cardio.CFSpread, 1e-9) // 48 - 46
	assert.InDelta(t, 80000.0, cardio.SpendSpread, 1e-9)

	// Single-run rows have zero spread rather than a spread against an
	// implicit zero.
	fm := res.Specialties[1]
	assert.Zero(t, fm.CFSpread)
	assert.Zero(t, fm.SpendSpread)
}

// =============================================================================
// 4. PAIR DELTAS
// =============================================================================

func TestPairDeltasUseFirstRunAsBaseline(t *testing.T) {
	res, err := CompareRuns(inputs(runA(), runB(), runA()))
	require.NoError(t, err)
	require.Len(t, res.Deltas, 2)

	d := res.Deltas[0]
	assert.Equal(t, "Conservative", d.FromLabel)
	assert.InDelta(t, 30000.0, d.SpendImpactDelta, 1e-9)
	assert.InDelta(t, 30000.0, d.IncentiveDollarsDelta, 1e-9)
	assert.InDelta(t, 3.0, d.MeanTCCPercentileDelta, 1e-9)
	assert.Equal(t, 1, d.AlignedSpecialtiesDelta)

	// Comparing the baseline against a copy of itself is a zero delta.
	assert.Zero(t, res.Deltas[1].SpendImpactDelta)
	assert.Zero(t, res.Deltas[1].AlignedSpecialtiesDelta)
}

// =============================================================================
// 5. NARRATIVE
// =============================================================================

func TestNarrativeSentences(t *testing.T) {
	res, err := CompareRuns([]RunInput{
		{Label: "A", Run: runA()},
		{Label: "B", Run: runB()},
	})
	require.NoError(t, err)

	assert.Contains(t, res.Narrative, "B spends $30000.00 more than A.")
	assert.Contains(t, res.Narrative, "B aligns 1 more specialties within tolerance than A.")
	assert.Contains(t, res.Narrative,
		"Cardiology diverges across runs: recommended CF varies by $2.00 per wRVU and spend impact by $80000.00.")
}

func TestNarrativeSkipsNoiseSpreads(t *testing.T) {
	b := runA()
	b.RunID = "run-a2"
	b.Specialties[0].RecommendedCF = 46.2 // under the half-dollar bar

	res, err := CompareRuns([]RunInput{
		{Label: "A", Run: runA()},
		{Label: "A2", Run: b},
	})
	require.NoError(t, err)

	for _, line := range res.Narrative {
		assert.NotContains(t, line, "diverges")
	}
}

func TestNarrativeIsDeterministic(t *testing.T) {
	in := []RunInput{{Label: "A", Run: runA()}, {Label: "B", Run: runB()}}

	first, err := CompareRuns(in)
	require.NoError(t, err)
	second, err := CompareRuns(in)
	require.NoError(t, err)

	assert.Equal(t, first.Narrative, second.Narrative)
}
