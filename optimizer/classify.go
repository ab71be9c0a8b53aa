/*
classify.go - Action, status, and explanation for a specialty result

PURPOSE:
  Stage 6 of the optimizer pipeline. Derives the recommended action, the
  traffic-light status, and a short deterministic explanation (headline,
  up to four "why" bullets, up to two next steps) from the computed
  metrics. No free-form generation; every sentence is templated from
  numbers already in the result.
*/
package optimizer

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// buildSpecialtyResult assembles the final result for one specialty after
// filtering and search.
func buildSpecialtyResult(g *specialtyGroup, outcome searchOutcome, members []*memberState, settings Settings) SpecialtyResult {
	sel := outcome.selected
	pctChange := 0.0
	if outcome.currentCF > 0 {
		pctChange = (sel.cf - outcome.currentCF) / outcome.currentCF * 100
	}

	res := SpecialtyResult{
		Specialty:     g.name,
		CurrentCF:     outcome.currentCF,
		RecommendedCF: sel.cf,
		PercentChange: pctChange,

		PreAlignmentGap:  outcome.baseline.meanGap,
		PostAlignmentGap: sel.meanGap,
		PreMeanAbsError:  outcome.baseline.meanAbsDeviation,
		PostMeanAbsError: sel.meanAbsDeviation,
		PreMeanSqError:   outcome.baseline.meanSqDeviation,
		PostMeanSqError:  sel.meanSqDeviation,

		MeanModeledTCCPercentile: sel.meanModeledTCCPct,
		MeanWRVUPercentile:       meanWRVUPercentile(members),
		SpendImpact:              sel.spendImpact,
		IncentiveDollars:         sel.incentiveDollars,

		IncludedCount: len(members),
		ExcludedCount: len(g.members) - len(members),
		Constraints:   outcome.constraints,
	}

	res.PolicyOK = len(outcome.constraints) == 0 &&
		sel.meanModeledTCCPct <= settings.Governance.HardCapPercentile
	res.Action = deriveAction(res, settings)
	res.Status = deriveStatus(res, settings)
	res.Explanation = buildExplanation(res, settings)
	res.Providers = buildContexts(g, members, sel)
	return res
}

// noRecommendationResult covers specialties with zero eligible providers;
// no search is performed.
func noRecommendationResult(g *specialtyGroup, settings Settings) SpecialtyResult {
	currentCF := 0.0
	if g.row != nil {
		currentCF = specialtyCurrentCF(g.members, *g.row)
	}
	res := SpecialtyResult{
		Specialty:     g.name,
		CurrentCF:     currentCF,
		RecommendedCF: currentCF,
		ExcludedCount: len(g.members),
		Action:        ActionNoRecommendation,
		Status:        StatusYellow,
		Providers:     buildContexts(g, nil, candidateEval{}),
	}
	res.Explanation = buildExplanation(res, settings)
	return res
}

func deriveAction(res SpecialtyResult, settings Settings) Action {
	if res.IncludedCount == 0 {
		return ActionNoRecommendation
	}
	if math.Abs(res.PercentChange) < settings.Governance.MinMeaningfulChangePct {
		return ActionHold
	}
	if res.RecommendedCF > res.CurrentCF {
		return ActionIncrease
	}
	return ActionDecrease
}

func deriveStatus(res SpecialtyResult, settings Settings) Status {
	gov := settings.Governance

	red := res.MeanModeledTCCPercentile > gov.FMVRedFlagPercentile ||
		hasConstraint(res.Constraints, ConstraintBudgetInfeasible) ||
		math.Abs(res.PostAlignmentGap) > 2*gov.AlignmentTolerance
	if red {
		return StatusRed
	}

	green := math.Abs(res.PostAlignmentGap) <= gov.AlignmentTolerance &&
		res.MeanModeledTCCPercentile <= gov.SoftCapPercentile &&
		len(res.Constraints) == 0
	if green {
		return StatusGreen
	}
	return StatusYellow
}

// buildExplanation renders the templated narrative for one specialty.
func buildExplanation(res SpecialtyResult, settings Settings) Explanation {
	var e Explanation

	switch res.Action {
	case ActionNoRecommendation:
		e.Headline = fmt.Sprintf("%s: no recommendation (no eligible providers)", res.Specialty)
		e.Why = append(e.Why, fmt.Sprintf("All %d providers were excluded by eligibility or outlier rules", res.ExcludedCount))
		e.NextSteps = append(e.NextSteps, "Review exclusion reasons or relax eligibility settings")
		return e
	case ActionHold:
		e.Headline = fmt.Sprintf("%s: hold CF at %s", res.Specialty, fmtMoney(res.CurrentCF))
	case ActionIncrease:
		e.Headline = fmt.Sprintf("%s: increase CF from %s to %s (%+.1f%%)",
			res.Specialty, fmtMoney(res.CurrentCF), fmtMoney(res.RecommendedCF), res.PercentChange)
	case ActionDecrease:
		e.Headline = fmt.Sprintf("%s: decrease CF from %s to %s (%+.1f%%)",
			res.Specialty, fmtMoney(res.CurrentCF), fmtMoney(res.RecommendedCF), res.PercentChange)
	}

	// Up to 4 why bullets, most informative first.
	e.Why = append(e.Why, fmt.Sprintf("Mean alignment gap moves from %+.1f to %+.1f percentile points",
		res.PreAlignmentGap, res.PostAlignmentGap))
	if res.PostMeanAbsError < res.PreMeanAbsError {
		e.Why = append(e.Why, fmt.Sprintf("Mean absolute misalignment improves from %.1f to %.1f",
			res.PreMeanAbsError, res.PostMeanAbsError))
	}
	e.Why = append(e.Why, fmt.Sprintf("Estimated incentive spend impact of %s across %d providers",
		fmtMoney(res.SpendImpact), res.IncludedCount))
	if res.ExcludedCount > 0 && len(e.Why) < 4 {
		e.Why = append(e.Why, fmt.Sprintf("%d providers excluded from the calculation", res.ExcludedCount))
	}
	if hasConstraint(res.Constraints, ConstraintCFCapped) && len(e.Why) < 4 {
		e.Why = append(e.Why, fmt.Sprintf("Recommendation capped to keep mean TCC at or below the %.0fth percentile",
			settings.Governance.HardCapPercentile))
	}
	if len(e.Why) > 4 {
		e.Why = e.Why[:4]
	}

	// Up to 2 next steps.
	if res.MeanModeledTCCPercentile > settings.Governance.SoftCapPercentile {
		e.NextSteps = append(e.NextSteps, "Consider an FMV review before adoption")
	}
	if hasConstraint(res.Constraints, ConstraintBudgetCapped) || hasConstraint(res.Constraints, ConstraintBudgetInfeasible) {
		e.NextSteps = append(e.NextSteps, "Budget constraint limited this recommendation; revisit the cap if alignment matters more")
	}
	if len(e.NextSteps) == 0 && res.Status == StatusGreen {
		e.NextSteps = append(e.NextSteps, "Recommendation is within policy; no additional review required")
	}
	if len(e.NextSteps) > 2 {
		e.NextSteps = e.NextSteps[:2]
	}

	return e
}

// buildContexts materializes the audit contexts for every provider in the
// group. Included members carry the modeled state at the selected CF;
// excluded members carry their baseline state.
func buildContexts(g *specialtyGroup, included []*memberState, sel candidateEval) []ProviderContext {
	selIndex := make(map[*memberState]int, len(included))
	for i, m := range included {
		selIndex[m] = i
	}

	contexts := make([]ProviderContext, 0, len(g.members))
	for _, m := range g.members {
		ctx := ProviderContext{
			ProviderID:       m.provider.ID,
			ProviderName:     m.provider.Name,
			BasisFTE:         m.basisFTE,
			WRVUs:            m.wrvus,
			WRVUsPerFTE:      m.wrvusPerFTE,
			Included:         m.included,
			ExclusionReasons: m.reasons,
		}

		if g.row != nil {
			base := m.baseline
			ctx.WRVUPercentile = base.WRVUPercentile.Percentile
			ctx.BaselineTCC = base.CurrentTCC
			ctx.BaselineTCCPercentile = base.CurrentTCCPercentile.Percentile
			if m.basisFTE > 0 {
				ctx.BaselineTCCPerFTE = base.CurrentTCC / m.basisFTE
			}

			modeled := base
			if i, ok := selIndex[m]; ok && i < len(sel.results) {
				modeled = sel.results[i]
			}
			ctx.ModeledTCC = modeled.ModeledTCC
			ctx.ModeledTCCPercentile = modeled.ModeledTCCPercentile.Percentile
			if m.basisFTE > 0 {
				ctx.ModeledTCCPerFTE = modeled.ModeledTCC / m.basisFTE
			}
			ctx.Gap = modeled.ModeledGap
		}

		contexts = append(contexts, ctx)
	}
	return contexts
}

func meanWRVUPercentile(members []*memberState) float64 {
	vals := make([]float64, len(members))
	for i, m := range members {
		vals[i] = m.baseline.WRVUPercentile.Percentile
	}
	return mean(vals)
}

func hasConstraint(constraints []string, tag string) bool {
	for _, c := range constraints {
		if c == tag {
			return true
		}
	}
	return false
}

// fmtMoney renders a dollar amount with two decimals, using decimal
// rounding for stable output.
func fmtMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
