/*
Package engine provides the core physician compensation calculation engine.

PURPOSE:
  This package contains the pure computation layer for compensation
  modeling: market percentile curves, specialty matching, per-provider
  scenario calculation, outlier detection, and batch execution. It holds
  no mutable state and performs no I/O; every operation is a deterministic
  function of its explicit inputs.

KEY CONCEPTS IN THIS FILE (types.go):
  - MarketCurve/MarketRow: Four-anchor (25/50/75/90) benchmark distributions
    for TCC, wRVU, and CF within a specialty
  - ProviderRecord: One physician's identity, FTE breakdown, compensation
    components, and productivity
  - ScenarioInputs: How to source a modeled CF, PSQ holdback, and threshold
  - ScenarioResult: The immutable output of one (provider, scenario) pair
  - Globals: Ambient thresholds passed explicitly into every entry point

DESIGN PRINCIPLES:
  1. Purity: No module-level mutable state; Globals travel as a value
  2. Defined fallbacks: Zero-FTE, zero-CF, and zero-wRVU divisions produce
     documented fallback values, never NaN or Inf
  3. Immutability: A ScenarioResult is computed once and read-only downstream

UNITS:
  Monetary values are floating-point dollars. Percentiles are floats in
  [0,100]. FTE allocations are fractions, typically 0-1 but not clamped.

SEE ALSO:
  - curve.go: Percentile interpolation and inference
  - specialty.go: Specialty name normalization and market matching
  - scenario.go: The scenario calculation pipeline
  - batch.go: Providers x scenarios batch execution
*/
package engine

import "math"

// =============================================================================
// MARKET BENCHMARKS
// =============================================================================

// MarketCurve is a four-anchor percentile distribution for one metric.
type MarketCurve struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
}

// Valid reports whether all four anchors are finite numbers.
func (c MarketCurve) Valid() bool {
	for _, v := range []float64{c.P25, c.P50, c.P75, c.P90} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Scale returns the curve with every anchor multiplied by f.
// Used for growth-factor adjusted benchmarking.
func (c MarketCurve) Scale(f float64) MarketCurve {
	if f == 0 || f == 1 {
		return c
	}
	return MarketCurve{P25: c.P25 * f, P50: c.P50 * f, P75: c.P75 * f, P90: c.P90 * f}
}

// MarketRow is one specialty's benchmark row: TCC, wRVU, and CF curves.
type MarketRow struct {
	Specialty    string      `json:"specialty"`
	ProviderType string      `json:"providerType,omitempty"`
	Region       string      `json:"region,omitempty"`
	TCC          MarketCurve `json:"tcc"`
	WRVU         MarketCurve `json:"wrvu"`
	CF           MarketCurve `json:"cf"`
}

// Valid reports whether all twelve percentile fields are present and finite.
func (m MarketRow) Valid() bool {
	return m.TCC.Valid() && m.WRVU.Valid() && m.CF.Valid()
}

// DollarsPerWRVU builds the synthetic $/wRVU curve by dividing each TCC
// anchor by the corresponding wRVU anchor. Anchors with a zero wRVU divisor
// yield zero rather than Inf.
func (m MarketRow) DollarsPerWRVU() MarketCurve {
	div := func(tcc, wrvu float64) float64 {
		if wrvu == 0 {
			return 0
		}
		return tcc / wrvu
	}
	return MarketCurve{
		P25: div(m.TCC.P25, m.WRVU.P25),
		P50: div(m.TCC.P50, m.WRVU.P50),
		P75: div(m.TCC.P75, m.WRVU.P75),
		P90: div(m.TCC.P90, m.WRVU.P90),
	}
}

// =============================================================================
// PROVIDERS
// =============================================================================

// BasePayComponent is one line of a provider's base-pay breakdown.
type BasePayComponent struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// ProductivityModel tags how a provider is paid.
type ProductivityModel string

const (
	ModelBase         ProductivityModel = "base"
	ModelProductivity ProductivityModel = "productivity"
)

// ProviderRecord is one physician as supplied by the caller.
type ProviderRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Specialty    string `json:"specialty"`
	Division     string `json:"division,omitempty"`
	ProviderType string `json:"providerType,omitempty"`

	// FTE breakdown. Fractions, typically 0-1; not hard-clamped.
	TotalFTE    float64 `json:"totalFTE"`
	ClinicalFTE float64 `json:"clinicalFTE"`
	AdminFTE    float64 `json:"adminFTE,omitempty"`
	ResearchFTE float64 `json:"researchFTE,omitempty"`
	TeachingFTE float64 `json:"teachingFTE,omitempty"`

	// Compensation components, annual dollars.
	BaseSalary      float64 `json:"baseSalary"`
	NonClinicalPay  float64 `json:"nonClinicalPay,omitempty"`
	QualityPayments float64 `json:"qualityPayments,omitempty"`
	OtherIncentive1 float64 `json:"otherIncentive1,omitempty"`
	OtherIncentive2 float64 `json:"otherIncentive2,omitempty"`
	OtherIncentive3 float64 `json:"otherIncentive3,omitempty"`

	// Productivity. TotalWRVUs may be reported directly or derived as the
	// sum of the parts. PCHWRVUs is a legacy field kept for older files.
	WorkWRVUs    float64 `json:"workWRVUs"`
	OutsideWRVUs float64 `json:"outsideWRVUs,omitempty"`
	PCHWRVUs     float64 `json:"pchWRVUs,omitempty"`
	TotalWRVUs   float64 `json:"totalWRVUs,omitempty"`

	// Current plan terms.
	CurrentCF        float64 `json:"currentCF"`
	CurrentThreshold float64 `json:"currentThreshold,omitempty"`
	CurrentTCC       float64 `json:"currentTCC,omitempty"`

	// Optional detail.
	BasePayComponents []BasePayComponent `json:"basePayComponents,omitempty"`
	ClinicalFTESalary *float64           `json:"clinicalFTESalary,omitempty"`
	Model             ProductivityModel  `json:"model,omitempty"`

	// Employment status, consumed by optimizer eligibility rules.
	OnLeave      bool    `json:"onLeave,omitempty"`
	TenureMonths float64 `json:"tenureMonths,omitempty"`
}

// OtherIncentiveTotal sums the up-to-three fixed incentive components.
func (p ProviderRecord) OtherIncentiveTotal() float64 {
	return p.OtherIncentive1 + p.OtherIncentive2 + p.OtherIncentive3
}

// =============================================================================
// SCENARIO INPUTS
// =============================================================================

// CFSourceMode selects how the modeled conversion factor is sourced.
type CFSourceMode string

const (
	CFModeTargetPercentile CFSourceMode = "target_percentile"
	CFModeTargetHaircut    CFSourceMode = "target_haircut"
	CFModeOverride         CFSourceMode = "override"
)

// PSQBasis selects the pay basis for the PSQ holdback percent.
type PSQBasis string

const (
	PSQBasisBaseSalary PSQBasis = "base_salary"
	PSQBasisTotalPay   PSQBasis = "total_pay"
)

// ThresholdMethod selects how the modeled annual wRVU threshold is derived.
type ThresholdMethod string

const (
	ThresholdDerived    ThresholdMethod = "derived"
	ThresholdAnnual     ThresholdMethod = "annual"
	ThresholdPercentile ThresholdMethod = "percentile"
)

// ScenarioInputs configures one modeled scenario.
type ScenarioInputs struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`

	CFMode             CFSourceMode `json:"cfMode"`
	TargetCFPercentile float64      `json:"targetCFPercentile,omitempty"`
	HaircutPercent     float64      `json:"haircutPercent,omitempty"`
	OverrideCF         float64      `json:"overrideCF,omitempty"`

	// PSQ percents are 0-100; values outside (0,100) contribute zero.
	CurrentPSQPercent float64  `json:"currentPSQPercent,omitempty"`
	ModeledPSQPercent float64  `json:"modeledPSQPercent,omitempty"`
	PSQBasis          PSQBasis `json:"psqBasis,omitempty"`

	ThresholdMethod         ThresholdMethod `json:"thresholdMethod,omitempty"`
	AnnualThreshold         float64         `json:"annualThreshold,omitempty"`
	ThresholdWRVUPercentile float64         `json:"thresholdWRVUPercentile,omitempty"`

	// Modeled overrides; nil means "use the provider's actual value".
	ModeledBaseSalary     *float64 `json:"modeledBaseSalary,omitempty"`
	ModeledNonClinicalPay *float64 `json:"modeledNonClinicalPay,omitempty"`
	ModeledWRVUs          *float64 `json:"modeledWRVUs,omitempty"`
}

// =============================================================================
// SCENARIO RESULTS
// =============================================================================

// InferredPercentile is the result of placing a value on a market curve.
type InferredPercentile struct {
	Percentile float64 `json:"percentile"`
	BelowRange bool    `json:"belowRange,omitempty"`
	AboveRange bool    `json:"aboveRange,omitempty"`
}

// OffScale reports whether the value fell outside the 25th-90th anchors.
func (ip InferredPercentile) OffScale() bool { return ip.BelowRange || ip.AboveRange }

// GovernanceFlags are the four independent policy booleans derived from a
// scenario result.
type GovernanceFlags struct {
	UnderpayRisk        bool `json:"underpayRisk"`
	CFBelow25           bool `json:"cfBelow25"`
	ModeledInPolicyBand bool `json:"modeledInPolicyBand"`
	FMVCheckSuggested   bool `json:"fmvCheckSuggested"`
}

// ScenarioResult is the immutable value object produced once per
// (provider, scenario) pair. Read-only downstream.
type ScenarioResult struct {
	// Resolved inputs.
	BaseSalary         float64 `json:"baseSalary"`
	ClinicalBaseSalary float64 `json:"clinicalBaseSalary"`
	TotalBasePay       float64 `json:"totalBasePay"`
	TotalWRVUs         float64 `json:"totalWRVUs"`

	// Current state.
	CurrentCF         float64 `json:"currentCF"`
	CurrentThreshold  float64 `json:"currentThreshold"`
	CurrentIncentive  float64 `json:"currentIncentive"`
	CurrentPSQDollars float64 `json:"currentPSQDollars"`
	CurrentTCC        float64 `json:"currentTCC"`

	// Modeled state.
	ModeledCF         float64 `json:"modeledCF"`
	ModeledBaseSalary float64 `json:"modeledBaseSalary"`
	ModeledThreshold  float64 `json:"modeledThreshold"`
	ModeledWRVUs      float64 `json:"modeledWRVUs"`
	ModeledIncentive  float64 `json:"modeledIncentive"`
	ModeledPSQDollars float64 `json:"modeledPSQDollars"`
	ModeledTCC        float64 `json:"modeledTCC"`

	// Normalized figures.
	WRVUPerClinicalFTE float64 `json:"wrvuPerClinicalFTE"`
	CurrentTCCPerFTE   float64 `json:"currentTCCPerFTE"`
	ModeledTCCPerFTE   float64 `json:"modeledTCCPerFTE"`

	// Market placement.
	WRVUPercentile       InferredPercentile `json:"wrvuPercentile"`
	CurrentTCCPercentile InferredPercentile `json:"currentTCCPercentile"`
	ModeledTCCPercentile InferredPercentile `json:"modeledTCCPercentile"`
	CurrentCFPercentile  InferredPercentile `json:"currentCFPercentile"`
	ModeledCFPercentile  InferredPercentile `json:"modeledCFPercentile"`

	// Imputed $/wRVU ratios against the synthetic market curve.
	CurrentDollarsPerWRVU           float64            `json:"currentDollarsPerWRVU"`
	ModeledDollarsPerWRVU           float64            `json:"modeledDollarsPerWRVU"`
	CurrentDollarsPerWRVUPercentile InferredPercentile `json:"currentDollarsPerWRVUPercentile"`
	ModeledDollarsPerWRVUPercentile InferredPercentile `json:"modeledDollarsPerWRVUPercentile"`

	// Alignment gaps: TCC percentile minus wRVU percentile.
	BaselineGap float64 `json:"baselineGap"`
	ModeledGap  float64 `json:"modeledGap"`

	Flags         GovernanceFlags `json:"flags"`
	HighRiskNotes []string        `json:"highRiskNotes,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// =============================================================================
// GLOBALS - Ambient configuration passed explicitly into every entry point
// =============================================================================

// Globals holds the ambient thresholds used across the engine. It is an
// immutable value passed into entry points, never module-level state.
type Globals struct {
	// Growth-factor scaling applied to market curves before benchmarking.
	TCCGrowthFactor  float64 `json:"tccGrowthFactor"`
	WRVUGrowthFactor float64 `json:"wrvuGrowthFactor"`

	// Governance flag thresholds.
	UnderpayGapThreshold float64 `json:"underpayGapThreshold"` // gap below this is underpay risk
	OverpayGapThreshold  float64 `json:"overpayGapThreshold"`  // gap above this suggests FMV review
	PolicyBandLow        float64 `json:"policyBandLow"`
	PolicyBandHigh       float64 `json:"policyBandHigh"`

	// Risk-note thresholds.
	LowFTEThreshold  float64 `json:"lowFTEThreshold"`
	LowWRVUThreshold float64 `json:"lowWRVUThreshold"`
}

// DefaultGlobals returns the standard governance defaults.
func DefaultGlobals() Globals {
	return Globals{
		TCCGrowthFactor:      1.0,
		WRVUGrowthFactor:     1.0,
		UnderpayGapThreshold: -15,
		OverpayGapThreshold:  15,
		PolicyBandLow:        25,
		PolicyBandHigh:       75,
		LowFTEThreshold:      0.7,
		LowWRVUThreshold:     1000,
	}
}

// Normalized fills zero-valued Globals with defaults so a zero struct
// behaves like DefaultGlobals. Every computation entry point applies
// this, so callers may pass partial globals.
func (g Globals) Normalized() Globals {
	def := DefaultGlobals()
	if g.TCCGrowthFactor == 0 {
		g.TCCGrowthFactor = def.TCCGrowthFactor
	}
	if g.WRVUGrowthFactor == 0 {
		g.WRVUGrowthFactor = def.WRVUGrowthFactor
	}
	if g.UnderpayGapThreshold == 0 {
		g.UnderpayGapThreshold = def.UnderpayGapThreshold
	}
	if g.OverpayGapThreshold == 0 {
		g.OverpayGapThreshold = def.OverpayGapThreshold
	}
	if g.PolicyBandLow == 0 {
		g.PolicyBandLow = def.PolicyBandLow
	}
	if g.PolicyBandHigh == 0 {
		g.PolicyBandHigh = def.PolicyBandHigh
	}
	if g.LowFTEThreshold == 0 {
		g.LowFTEThreshold = def.LowFTEThreshold
	}
	if g.LowWRVUThreshold == 0 {
		g.LowWRVUThreshold = def.LowWRVUThreshold
	}
	return g
}
