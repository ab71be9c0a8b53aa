/*
scenario.go - Per-provider scenario calculation

PURPOSE:
  Computes one ScenarioResult from a provider, its matched market row, and
  scenario inputs. This is the heart of the engine: baseline and modeled
  compensation, thresholds, incentives, PSQ dollars, market percentiles,
  alignment gaps, governance flags, and risk notes.

CALCULATION ORDER:
  1.  Base salary (component sum or flat field)
  2.  Clinical base salary (override or base)
  3.  Total wRVUs (reported or summed, incl. legacy pch field)
  4.  Current threshold (reported or clinical salary / current CF)
  5.  Current incentive ((wRVUs - threshold) * CF; may be negative)
  6.  Modeled CF (override, target percentile, or percentile with haircut)
  7.  Modeled threshold (derived / annual / market-percentile method)
  8.  Modeled incentive
  9.  PSQ dollars, current and modeled (base-salary or total-pay gross-up)
  10. TCC assembly (incentive folded in clamped at zero)
  11. FTE normalization and market percentiles
  12. Imputed $/wRVU vs the synthetic market $/wRVU curve
  13. Alignment gaps (TCC percentile minus wRVU percentile)
  14. Governance flags
  15. Risk notes and warnings

DEGENERACY:
  Every division guards its denominator: zero FTE, zero CF, and zero wRVU
  paths produce 0 (or the pre-division operand where documented) rather
  than NaN or Inf. There are no error returns; malformed numeric input
  degrades to defined fallbacks.

SEE ALSO:
  - curve.go: Percentile placement
  - batch.go: Runs this across providers x scenarios
*/
package engine

import "math"

// ComputeScenario runs the full calculation pipeline for one provider
// against its matched market row.
func ComputeScenario(provider ProviderRecord, row MarketRow, in ScenarioInputs, globals Globals) ScenarioResult {
	g := globals.Normalized()

	// Growth-adjusted benchmark curves.
	tccCurve := row.TCC.Scale(g.TCCGrowthFactor)
	wrvuCurve := row.WRVU.Scale(g.WRVUGrowthFactor)
	cfCurve := row.CF

	// Steps 1-3: resolve the provider's effective inputs.
	baseSalary := ResolvedBaseSalary(provider)
	clinicalBase := resolvedClinicalSalary(provider, baseSalary)
	totalWRVUs := ResolvedTotalWRVUs(provider)

	// Step 4: current threshold.
	currentThreshold := provider.CurrentThreshold
	if currentThreshold <= 0 {
		currentThreshold = safeDiv(clinicalBase, provider.CurrentCF)
	}

	// Step 5: current incentive. Negative values survive here; the clamp
	// happens when folding into TCC.
	var currentIncentive float64
	if provider.CurrentCF > 0 {
		currentIncentive = (totalWRVUs - currentThreshold) * provider.CurrentCF
	}

	// Step 6: modeled CF.
	modeledCF := resolveModeledCF(in, cfCurve)

	// Step 7: modeled threshold.
	modeledBase := baseSalary
	if in.ModeledBaseSalary != nil && isFinite(*in.ModeledBaseSalary) {
		modeledBase = *in.ModeledBaseSalary
	}
	clinicalShare := safeDiv(provider.ClinicalFTE, provider.TotalFTE)
	modeledClinicalSalary := modeledBase * clinicalShare
	modeledThreshold := resolveModeledThreshold(in, modeledClinicalSalary, modeledCF, wrvuCurve, provider.ClinicalFTE)

	// Step 8: modeled incentive.
	modeledWRVUs := totalWRVUs
	if in.ModeledWRVUs != nil && isFinite(*in.ModeledWRVUs) {
		modeledWRVUs = *in.ModeledWRVUs
	}
	modeledIncentive := (modeledWRVUs - modeledThreshold) * modeledCF

	// Step 9: PSQ dollars, computed symmetrically.
	currentPSQ := psqDollars(in.CurrentPSQPercent, in.PSQBasis, baseSalary, currentIncentive)
	modeledPSQ := psqDollars(in.ModeledPSQPercent, in.PSQBasis, modeledBase, modeledIncentive)

	// Step 10: TCC assembly.
	nonClinical := provider.NonClinicalPay
	if in.ModeledNonClinicalPay != nil && isFinite(*in.ModeledNonClinicalPay) {
		nonClinical = *in.ModeledNonClinicalPay
	}
	totalBasePay := resolvedTotalBasePay(provider, baseSalary+provider.NonClinicalPay)
	fixed := provider.QualityPayments + provider.OtherIncentiveTotal()

	currentTCC := provider.CurrentTCC
	if currentTCC <= 0 {
		currentTCC = totalBasePay + math.Max(currentIncentive, 0) + currentPSQ + fixed
	}
	modeledTotalBasePay := totalBasePay
	if in.ModeledBaseSalary != nil || in.ModeledNonClinicalPay != nil {
		// Overrides take precedence over the component breakdown.
		modeledTotalBasePay = modeledBase + nonClinical
	}
	modeledTCC := modeledTotalBasePay + math.Max(modeledIncentive, 0) + modeledPSQ + fixed

	// Step 11: normalization and market placement.
	wrvuPerFTE := safeDiv(totalWRVUs, provider.ClinicalFTE)
	currentTCCPerFTE := safeDiv(currentTCC, provider.TotalFTE)
	modeledTCCPerFTE := safeDiv(modeledTCC, provider.TotalFTE)

	wrvuPct := wrvuCurve.PercentileOf(wrvuPerFTE)
	currentTCCPct := tccCurve.PercentileOf(currentTCCPerFTE)
	modeledTCCPct := tccCurve.PercentileOf(modeledTCCPerFTE)
	currentCFPct := cfCurve.PercentileOf(provider.CurrentCF)

	var modeledCFPct InferredPercentile
	if in.CFMode == CFModeTargetPercentile {
		// The scenario fixes the percentile; report it directly.
		modeledCFPct = InferredPercentile{Percentile: in.TargetCFPercentile}
	} else {
		modeledCFPct = cfCurve.PercentileOf(modeledCF)
	}

	// Step 12: imputed $/wRVU against the synthetic market curve.
	ratioCurve := syntheticDollarsPerWRVU(tccCurve, wrvuCurve)
	currentRatio := imputedDollarsPerWRVU(currentTCC, totalWRVUs, provider.ClinicalFTE)
	modeledRatio := imputedDollarsPerWRVU(modeledTCC, modeledWRVUs, provider.ClinicalFTE)

	// Step 13: alignment gaps.
	baselineGap := currentTCCPct.Percentile - wrvuPct.Percentile
	modeledGap := modeledTCCPct.Percentile - wrvuPct.Percentile

	// Step 14: governance flags. All four are independent.
	flags := GovernanceFlags{
		UnderpayRisk: baselineGap < g.UnderpayGapThreshold || modeledGap < g.UnderpayGapThreshold,
		CFBelow25:    currentCFPct.Percentile < g.PolicyBandLow,
		ModeledInPolicyBand: inBand(modeledCFPct.Percentile, g.PolicyBandLow, g.PolicyBandHigh) &&
			inBand(modeledTCCPct.Percentile, g.PolicyBandLow, g.PolicyBandHigh),
		FMVCheckSuggested: modeledTCCPct.Percentile > g.PolicyBandHigh || modeledGap > g.OverpayGapThreshold,
	}

	// Step 15: risk notes and warnings.
	var notes, warnings []string
	if provider.ClinicalFTE < g.LowFTEThreshold {
		notes = append(notes, "Low clinical FTE; percentile placement may be unreliable")
	}
	if provider.TotalFTE < g.LowFTEThreshold {
		notes = append(notes, "Low total FTE; percentile placement may be unreliable")
	}
	if totalWRVUs > 0 && totalWRVUs < g.LowWRVUThreshold {
		warnings = append(warnings, "Low total wRVUs; productivity percentile may be unstable")
	}
	for _, p := range []InferredPercentile{wrvuPct, currentTCCPct, modeledTCCPct, currentCFPct, modeledCFPct} {
		if p.OffScale() {
			warnings = append(warnings, "One or more percentiles fall outside the 25th-90th benchmark range")
			break
		}
	}

	return ScenarioResult{
		BaseSalary:         baseSalary,
		ClinicalBaseSalary: clinicalBase,
		TotalBasePay:       totalBasePay,
		TotalWRVUs:         totalWRVUs,

		CurrentCF:         provider.CurrentCF,
		CurrentThreshold:  currentThreshold,
		CurrentIncentive:  currentIncentive,
		CurrentPSQDollars: currentPSQ,
		CurrentTCC:        currentTCC,

		ModeledCF:         modeledCF,
		ModeledBaseSalary: modeledBase,
		ModeledThreshold:  modeledThreshold,
		ModeledWRVUs:      modeledWRVUs,
		ModeledIncentive:  modeledIncentive,
		ModeledPSQDollars: modeledPSQ,
		ModeledTCC:        modeledTCC,

		WRVUPerClinicalFTE: wrvuPerFTE,
		CurrentTCCPerFTE:   currentTCCPerFTE,
		ModeledTCCPerFTE:   modeledTCCPerFTE,

		WRVUPercentile:       wrvuPct,
		CurrentTCCPercentile: currentTCCPct,
		ModeledTCCPercentile: modeledTCCPct,
		CurrentCFPercentile:  currentCFPct,
		ModeledCFPercentile:  modeledCFPct,

		CurrentDollarsPerWRVU:           currentRatio,
		ModeledDollarsPerWRVU:           modeledRatio,
		CurrentDollarsPerWRVUPercentile: ratioCurve.PercentileOf(currentRatio),
		ModeledDollarsPerWRVUPercentile: ratioCurve.PercentileOf(modeledRatio),

		BaselineGap: baselineGap,
		ModeledGap:  modeledGap,

		Flags:         flags,
		HighRiskNotes: notes,
		Warnings:      warnings,
	}
}

// =============================================================================
// INPUT RESOLUTION
// =============================================================================

// ResolvedBaseSalary returns the component sum when any component carries a
// positive amount, else the flat base-salary field.
func ResolvedBaseSalary(p ProviderRecord) float64 {
	var sum float64
	var anyPositive bool
	for _, c := range p.BasePayComponents {
		if c.Amount > 0 {
			anyPositive = true
		}
		sum += c.Amount
	}
	if anyPositive {
		return sum
	}
	return p.BaseSalary
}

// ResolvedTotalWRVUs returns the reported total when nonzero, else the sum
// of work, outside, and legacy pch wRVUs.
func ResolvedTotalWRVUs(p ProviderRecord) float64 {
	if p.TotalWRVUs != 0 {
		return p.TotalWRVUs
	}
	return p.WorkWRVUs + p.OutsideWRVUs + p.PCHWRVUs
}

func resolvedClinicalSalary(p ProviderRecord, baseSalary float64) float64 {
	if p.ClinicalFTESalary != nil && isFinite(*p.ClinicalFTESalary) {
		return *p.ClinicalFTESalary
	}
	return baseSalary
}

func resolvedTotalBasePay(p ProviderRecord, flat float64) float64 {
	var sum float64
	var anyPositive bool
	for _, c := range p.BasePayComponents {
		if c.Amount > 0 {
			anyPositive = true
		}
		sum += c.Amount
	}
	if anyPositive {
		return sum
	}
	return flat
}

func resolveModeledCF(in ScenarioInputs, cfCurve MarketCurve) float64 {
	if in.CFMode == CFModeOverride {
		return in.OverrideCF
	}
	cf := cfCurve.ValueAt(in.TargetCFPercentile)
	if in.CFMode == CFModeTargetHaircut {
		cf *= 1 - in.HaircutPercent/100
	}
	return cf
}

func resolveModeledThreshold(in ScenarioInputs, modeledClinicalSalary, modeledCF float64, wrvuCurve MarketCurve, clinicalFTE float64) float64 {
	derived := safeDiv(modeledClinicalSalary, modeledCF)
	switch in.ThresholdMethod {
	case ThresholdAnnual:
		if in.AnnualThreshold > 0 {
			return in.AnnualThreshold
		}
		return derived
	case ThresholdPercentile:
		return wrvuCurve.ValueAt(in.ThresholdWRVUPercentile) * clinicalFTE
	default:
		return derived
	}
}

// psqDollars computes the quality-holdback dollars for one state. Percents
// outside (0,100) contribute zero. The total_pay basis grosses the percent
// up against base+incentive: x * (p / (1-p)).
func psqDollars(percent float64, basis PSQBasis, base, incentive float64) float64 {
	if percent <= 0 || percent >= 100 {
		return 0
	}
	p := percent / 100
	if basis == PSQBasisTotalPay {
		return (base + incentive) * (p / (1 - p))
	}
	return base * p
}

// =============================================================================
// SMALL HELPERS
// =============================================================================

// syntheticDollarsPerWRVU divides TCC anchors by wRVU anchors pointwise.
func syntheticDollarsPerWRVU(tcc, wrvu MarketCurve) MarketCurve {
	return MarketRow{TCC: tcc, WRVU: wrvu}.DollarsPerWRVU()
}

// imputedDollarsPerWRVU is salary / (wRVUs / clinicalFTE), zero when either
// divisor is non-positive or the salary is non-finite.
func imputedDollarsPerWRVU(salary, wrvus, clinicalFTE float64) float64 {
	if clinicalFTE <= 0 || wrvus <= 0 || !isFinite(salary) {
		return 0
	}
	return salary / (wrvus / clinicalFTE)
}

func inBand(v, lo, hi float64) bool { return v >= lo && v <= hi }

func safeDiv(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
