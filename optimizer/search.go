/*
search.go - Candidate CF evaluation and constrained selection

PURPOSE:
  Stage 3-5 of the optimizer pipeline. Builds a bounded candidate grid
  around the specialty's current CF, evaluates the configured objective at
  each candidate, and selects the lowest-error candidate. Governance caps
  and budget constraints then narrow or clamp the selection, each leaving
  a machine-readable constraint tag.

SELECTION RULES:
  - Lowest aggregate error wins; ties favor the candidate closest to the
    current CF.
  - The current CF itself is always a candidate when inside the bounds, so
    the search can never select a candidate worse than the baseline.
  - Hard-cap breaches re-select among candidates whose mean modeled TCC
    percentile respects the cap (cf_capped).
  - A configured max recommended CF percentile clamps the recommendation
    to that market CF value (cf_percentile_capped).
  - Budget breaches re-select among feasible candidates, preferring the
    one closest to the unconstrained optimum (budget_capped); when no
    candidate is feasible the lowest-spend candidate wins
    (budget_infeasible).

SPEND ACCOUNTING:
  Aggregate incentive dollars accumulate in decimal form so roll-ups do
  not drift with provider ordering.
*/
package optimizer

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/comp-engine/engine"
)

const errorTieEpsilon = 1e-9

// candidateEval is one evaluated CF candidate for a specialty.
type candidateEval struct {
	cf                float64
	errorValue        float64 // aggregate objective error (mean)
	meanAbsDeviation  float64
	meanSqDeviation   float64
	meanModeledTCCPct float64
	meanGap           float64
	spendImpact       float64
	incentiveDollars  float64
	overHardCap       int
	results           []engine.ScenarioResult // parallel to members
}

// evaluateCandidate recomputes each included member's modeled state at cf
// and aggregates the objective error.
func evaluateCandidate(cf float64, members []*memberState, row engine.MarketRow, settings Settings) candidateEval {
	eval := candidateEval{cf: cf, results: make([]engine.ScenarioResult, len(members))}

	inputs := settings.Scenario
	inputs.CFMode = engine.CFModeOverride
	inputs.OverrideCF = cf

	var absSum, sqSum, errSum, tccSum, gapSum float64
	spend := decimal.Zero
	incentive := decimal.Zero

	for i, m := range members {
		res := engine.ComputeScenario(m.provider, row, inputs, settings.Globals)
		eval.results[i] = res

		dev := objectiveDeviation(res, settings)
		absSum += math.Abs(dev)
		sqSum += dev * dev
		if settings.Metric == MetricAbsolute {
			errSum += math.Abs(dev)
		} else {
			errSum += dev * dev
		}

		tccSum += res.ModeledTCCPercentile.Percentile
		gapSum += res.ModeledGap
		if res.ModeledTCCPercentile.Percentile > settings.Governance.HardCapPercentile {
			eval.overHardCap++
		}

		modeled := math.Max(res.ModeledIncentive, 0)
		current := math.Max(res.CurrentIncentive, 0)
		incentive = incentive.Add(decimal.NewFromFloat(modeled))
		spend = spend.Add(decimal.NewFromFloat(modeled - current))
	}

	n := float64(len(members))
	if n > 0 {
		eval.errorValue = errSum / n
		eval.meanAbsDeviation = absSum / n
		eval.meanSqDeviation = sqSum / n
		eval.meanModeledTCCPct = tccSum / n
		eval.meanGap = gapSum / n
	}
	eval.spendImpact = spend.InexactFloat64()
	eval.incentiveDollars = incentive.InexactFloat64()
	return eval
}

// objectiveDeviation is one provider's deviation under the configured
// objective. The error metric squares or abs-es this value.
func objectiveDeviation(res engine.ScenarioResult, settings Settings) float64 {
	align := res.ModeledTCCPercentile.Percentile - res.WRVUPercentile.Percentile
	fixed := res.ModeledTCCPercentile.Percentile - settings.TargetPercentile

	switch settings.Objective {
	case ObjectiveTargetFixed:
		return fixed
	case ObjectiveHybrid:
		w := settings.HybridWeight
		return w*fixed + (1-w)*align
	default:
		return align
	}
}

// searchOutcome is the selected candidate plus its audit trail.
type searchOutcome struct {
	currentCF   float64
	baseline    candidateEval // evaluated at the current CF
	selected    candidateEval
	constraints []string
}

// runSearch executes the bounded grid search for one specialty group.
// members must be the included subset and non-empty.
func runSearch(g *specialtyGroup, members []*memberState, settings Settings) searchOutcome {
	currentCF := specialtyCurrentCF(members, *g.row)
	lo, hi := searchRange(currentCF, settings.Bounds)
	candidates := candidateGrid(currentCF, lo, hi, settings.Bounds.StepPct)

	evals := make([]candidateEval, len(candidates))
	for i, cf := range candidates {
		evals[i] = evaluateCandidate(cf, members, *g.row, settings)
	}

	baseline := evaluateCandidate(currentCF, members, *g.row, settings)

	outcome := searchOutcome{currentCF: currentCF, baseline: baseline}
	best := pickBest(evals, currentCF)

	// Governance hard cap (stage 4).
	if best.meanModeledTCCPct > settings.Governance.HardCapPercentile {
		var capped []candidateEval
		for _, e := range evals {
			if e.meanModeledTCCPct <= settings.Governance.HardCapPercentile {
				capped = append(capped, e)
			}
		}
		if len(capped) > 0 {
			best = pickBest(capped, currentCF)
		} else {
			best = lowestMeanPct(evals)
		}
		outcome.constraints = append(outcome.constraints, ConstraintCFCapped)
	}

	// Max recommended CF percentile cap.
	if maxPct := settings.Governance.MaxRecommendedCFPercentile; maxPct > 0 {
		capCF := g.row.CF.ValueAt(maxPct)
		if best.cf > capCF {
			best = evaluateCandidate(capCF, members, *g.row, settings)
			outcome.constraints = append(outcome.constraints, ConstraintCFPercentileCapped)
		}
	}

	// Budget constraint (stage 5).
	if cap, constrained := budgetCap(settings.Budget, baseline.incentiveDollars); constrained && best.spendImpact > cap {
		var feasible []candidateEval
		for _, e := range evals {
			if e.spendImpact <= cap {
				feasible = append(feasible, e)
			}
		}
		if len(feasible) > 0 {
			// Prefer the feasible candidate closest to the unconstrained
			// optimum.
			target := best.cf
			sort.Slice(feasible, func(i, j int) bool {
				di, dj := math.Abs(feasible[i].cf-target), math.Abs(feasible[j].cf-target)
				if di != dj {
					return di < dj
				}
				return feasible[i].cf < feasible[j].cf
			})
			best = feasible[0]
			outcome.constraints = append(outcome.constraints, ConstraintBudgetCapped)
		} else {
			best = lowestSpend(evals)
			outcome.constraints = append(outcome.constraints, ConstraintBudgetInfeasible)
		}
	}

	if len(candidates) > 1 && (best.cf == candidates[0] || best.cf == candidates[len(candidates)-1]) {
		outcome.constraints = append(outcome.constraints, ConstraintAtSearchBound)
	}

	outcome.selected = best
	return outcome
}

// specialtyCurrentCF is the median of the included providers' current CFs,
// falling back to the market median CF when no provider carries one.
func specialtyCurrentCF(members []*memberState, row engine.MarketRow) float64 {
	var cfs []float64
	for _, m := range members {
		if m.provider.CurrentCF > 0 {
			cfs = append(cfs, m.provider.CurrentCF)
		}
	}
	if len(cfs) == 0 {
		return row.CF.P50
	}
	sort.Float64s(cfs)
	mid := len(cfs) / 2
	if len(cfs)%2 == 1 {
		return cfs[mid]
	}
	return (cfs[mid-1] + cfs[mid]) / 2
}

func searchRange(currentCF float64, b SearchBounds) (lo, hi float64) {
	lo = currentCF * (1 - b.MaxDecreasePct/100)
	hi = currentCF * (1 + b.MaxIncreasePct/100)
	if b.FloorCF > 0 && lo < b.FloorCF {
		lo = b.FloorCF
	}
	if b.CeilingCF > 0 && hi > b.CeilingCF {
		hi = b.CeilingCF
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// candidateGrid steps from lo to hi at stepPct of the current CF, always
// including both endpoints and the current CF itself when in range.
func candidateGrid(currentCF, lo, hi, stepPct float64) []float64 {
	step := currentCF * stepPct / 100
	if step <= 0 {
		step = math.Max(hi-lo, 0.01)
	}

	var grid []float64
	for cf := lo; cf < hi; cf += step {
		grid = append(grid, cf)
	}
	grid = append(grid, hi)
	if currentCF >= lo && currentCF <= hi {
		grid = append(grid, currentCF)
	}

	sort.Float64s(grid)
	// Drop near-duplicates introduced by endpoint insertion.
	out := grid[:0]
	for i, cf := range grid {
		if i == 0 || cf-out[len(out)-1] > step/1000 {
			out = append(out, cf)
		}
	}
	return out
}

func pickBest(evals []candidateEval, currentCF float64) candidateEval {
	best := evals[0]
	for _, e := range evals[1:] {
		switch {
		case e.errorValue < best.errorValue-errorTieEpsilon:
			best = e
		case math.Abs(e.errorValue-best.errorValue) <= errorTieEpsilon &&
			math.Abs(e.cf-currentCF) < math.Abs(best.cf-currentCF):
			best = e
		}
	}
	return best
}

func lowestMeanPct(evals []candidateEval) candidateEval {
	best := evals[0]
	for _, e := range evals[1:] {
		if e.meanModeledTCCPct < best.meanModeledTCCPct {
			best = e
		}
	}
	return best
}

func lowestSpend(evals []candidateEval) candidateEval {
	best := evals[0]
	for _, e := range evals[1:] {
		if e.spendImpact < best.spendImpact {
			best = e
		}
	}
	return best
}

// budgetCap resolves the configured constraint to a dollar cap on spend
// impact. The second return reports whether a cap applies at all.
func budgetCap(b BudgetConstraint, baselineIncentive float64) (float64, bool) {
	switch b.Mode {
	case BudgetNeutral:
		return 0, true
	case BudgetCapPct:
		return baselineIncentive * b.CapPercent / 100, true
	case BudgetCapDollars:
		return b.CapDollars, true
	default:
		return 0, false
	}
}
