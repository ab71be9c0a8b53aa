/*
Package compare diffs completed optimizer runs.

PURPOSE:
  Pure post-processing over two to four finished optimizer runs: per-run
  roll-ups, a by-specialty delta table keyed by specialty presence across
  the selected runs, and a short templated narrative. Nothing is
  recomputed; this package only consumes optimizer result collections.
*/
package compare

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/optimizer"
)

var (
	// ErrTooFewRuns is returned for fewer than two runs.
	ErrTooFewRuns = errors.New("comparison requires at least two runs")
	// ErrTooManyRuns is returned for more than four runs.
	ErrTooManyRuns = errors.New("comparison supports at most four runs")
	// ErrEmptyRun is returned when a run carries no specialty results.
	ErrEmptyRun = errors.New("run has no results to compare")
)

// RunInput pairs a completed run with a display label.
type RunInput struct {
	Label string               `json:"label"`
	Run   *optimizer.RunResult `json:"run"`
}

// RunSummary is the roll-up for one run in the comparison.
type RunSummary struct {
	RunID          string              `json:"runId"`
	Label          string              `json:"label"`
	ScenarioName   string              `json:"scenarioName,omitempty"`
	Totals         optimizer.RunTotals `json:"totals"`
	SpecialtyCount int                 `json:"specialtyCount"`
	Increases      int                 `json:"increases"`
	Decreases      int                 `json:"decreases"`
	Holds          int                 `json:"holds"`
	NoRecs         int                 `json:"noRecommendations"`
}

// SpecialtyCell is one run's entry in the by-specialty table. Present is
// false when the run produced no result for that specialty.
type SpecialtyCell struct {
	Present       bool             `json:"present"`
	RecommendedCF float64          `json:"recommendedCF,omitempty"`
	PercentChange float64          `json:"percentChange,omitempty"`
	PostGap       float64          `json:"postGap,omitempty"`
	SpendImpact   float64          `json:"spendImpact,omitempty"`
	Action        optimizer.Action `json:"action,omitempty"`
	Status        optimizer.Status `json:"status,omitempty"`
}

// SpecialtyDelta is one row of the by-specialty table, one cell per run.
type SpecialtyDelta struct {
	Specialty   string          `json:"specialty"`
	Cells       []SpecialtyCell `json:"cells"`
	CFSpread    float64         `json:"cfSpread"`    // max minus min recommended CF
	SpendSpread float64         `json:"spendSpread"` // max minus min spend impact
}

// PairDelta compares the baseline (first) run against one other run.
type PairDelta struct {
	FromLabel               string  `json:"fromLabel"`
	ToLabel                 string  `json:"toLabel"`
	SpendImpactDelta        float64 `json:"spendImpactDelta"`
	IncentiveDollarsDelta   float64 `json:"incentiveDollarsDelta"`
	MeanTCCPercentileDelta  float64 `json:"meanTCCPercentileDelta"`
	AlignedSpecialtiesDelta int     `json:"alignedSpecialtiesDelta"`
}

// ComparisonResult is the full diff across the selected runs.
type ComparisonResult struct {
	Runs        []RunSummary     `json:"runs"`
	Specialties []SpecialtyDelta `json:"specialties"`
	Deltas      []PairDelta      `json:"deltas"`
	Narrative   []string         `json:"narrative"`
}

// CompareRuns diffs 2-4 completed runs. The first run is the baseline for
// pairwise deltas.
func CompareRuns(inputs []RunInput) (*ComparisonResult, error) {
	if len(inputs) < 2 {
		return nil, ErrTooFewRuns
	}
	if len(inputs) > 4 {
		return nil, ErrTooManyRuns
	}
	for _, in := range inputs {
		if in.Run == nil || len(in.Run.Specialties) == 0 {
			return nil, ErrEmptyRun
		}
	}

	out := &ComparisonResult{}
	for i, in := range inputs {
		out.Runs = append(out.Runs, summarize(in, i))
	}
	out.Specialties = specialtyTable(inputs)
	for i := 1; i < len(inputs); i++ {
		out.Deltas = append(out.Deltas, pairDelta(out.Runs[0], out.Runs[i]))
	}
	out.Narrative = buildNarrative(out)
	return out, nil
}

func summarize(in RunInput, index int) RunSummary {
	label := in.Label
	if label == "" {
		label = in.Run.ScenarioName
	}
	if label == "" {
		label = defaultLabel(index)
	}

	s := RunSummary{
		RunID:          in.Run.RunID,
		Label:          label,
		ScenarioName:   in.Run.ScenarioName,
		Totals:         in.Run.Totals,
		SpecialtyCount: len(in.Run.Specialties),
	}
	for _, sp := range in.Run.Specialties {
		switch sp.Action {
		case optimizer.ActionIncrease:
			s.Increases++
		case optimizer.ActionDecrease:
			s.Decreases++
		case optimizer.ActionHold:
			s.Holds++
		default:
			s.NoRecs++
		}
	}
	return s
}

// specialtyTable builds one row per specialty present in any run, with a
// cell per run in input order.
func specialtyTable(inputs []RunInput) []SpecialtyDelta {
	byName := make(map[string]*SpecialtyDelta)
	var names []string

	for runIdx, in := range inputs {
		for _, sp := range in.Run.Specialties {
			row, ok := byName[sp.Specialty]
			if !ok {
				row = &SpecialtyDelta{
					Specialty: sp.Specialty,
					Cells:     make([]SpecialtyCell, len(inputs)),
				}
				byName[sp.Specialty] = row
				names = append(names, sp.Specialty)
			}
			row.Cells[runIdx] = SpecialtyCell{
				Present:       true,
				RecommendedCF: sp.RecommendedCF,
				PercentChange: sp.PercentChange,
				PostGap:       sp.PostAlignmentGap,
				SpendImpact:   sp.SpendImpact,
				Action:        sp.Action,
				Status:        sp.Status,
			}
		}
	}

	sort.Strings(names)
	rows := make([]SpecialtyDelta, 0, len(names))
	for _, name := range names {
		row := byName[name]
		row.CFSpread, row.SpendSpread = spreads(row.Cells)
		rows = append(rows, *row)
	}
	return rows
}

func spreads(cells []SpecialtyCell) (cfSpread, spendSpread float64) {
	first := true
	var cfMin, cfMax, spMin, spMax float64
	for _, c := range cells {
		if !c.Present {
			continue
		}
		if first {
			cfMin, cfMax = c.RecommendedCF, c.RecommendedCF
			spMin, spMax = c.SpendImpact, c.SpendImpact
			first = false
			continue
		}
		cfMin = minFloat(cfMin, c.RecommendedCF)
		cfMax = maxFloat(cfMax, c.RecommendedCF)
		spMin = minFloat(spMin, c.SpendImpact)
		spMax = maxFloat(spMax, c.SpendImpact)
	}
	return cfMax - cfMin, spMax - spMin
}

func pairDelta(from, to RunSummary) PairDelta {
	spend := decimal.NewFromFloat(to.Totals.SpendImpact).Sub(decimal.NewFromFloat(from.Totals.SpendImpact))
	incentive := decimal.NewFromFloat(to.Totals.IncentiveDollars).Sub(decimal.NewFromFloat(from.Totals.IncentiveDollars))
	return PairDelta{
		FromLabel:               from.Label,
		ToLabel:                 to.Label,
		SpendImpactDelta:        spend.InexactFloat64(),
		IncentiveDollarsDelta:   incentive.InexactFloat64(),
		MeanTCCPercentileDelta:  to.Totals.MeanTCCPercentile - from.Totals.MeanTCCPercentile,
		AlignedSpecialtiesDelta: to.Totals.AlignedSpecialties - from.Totals.AlignedSpecialties,
	}
}

func defaultLabel(index int) string {
	return string(rune('A' + index))
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
