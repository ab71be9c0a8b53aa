/*
Package optimizer searches for specialty-level conversion-factor
recommendations that align pay percentile with productivity percentile,
subject to governance guardrails.

PURPOSE:
  Given provider rows, market benchmarks, and a settings object, the
  optimizer groups providers by matched specialty, filters out ineligible
  and outlier providers, grid-searches candidate CFs against the configured
  objective, applies governance caps and budget constraints, and classifies
  each specialty with an action, a traffic-light status, and a
  deterministic natural-language explanation.

KEY CONCEPTS IN THIS FILE (settings.go):
  - Settings: The full configuration for one optimization run
  - Normalized(): Malformed fields recover to engine defaults rather than
    failing the run (config problems are never fatal)

SEE ALSO:
  - eligibility.go: Provider filtering and outlier exclusion
  - search.go: Candidate evaluation, governance caps, budget constraints
  - classify.go: Action, status, and explanation
  - run.go: Orchestration across specialties with progress
*/
package optimizer

import (
	"github.com/warp/comp-engine/engine"
)

// Objective selects what the CF search minimizes.
type Objective string

const (
	// ObjectiveAlignPercentile minimizes the deviation between each
	// provider's modeled TCC percentile and their wRVU percentile.
	ObjectiveAlignPercentile Objective = "align_percentile"
	// ObjectiveTargetFixed minimizes deviation from one fixed percentile.
	ObjectiveTargetFixed Objective = "target_fixed_percentile"
	// ObjectiveHybrid minimizes a weighted sum of both deviations.
	ObjectiveHybrid Objective = "hybrid"
)

// ErrorMetric selects how deviations aggregate.
type ErrorMetric string

const (
	MetricSquared  ErrorMetric = "squared"
	MetricAbsolute ErrorMetric = "absolute"
)

// BudgetMode constrains the aggregate modeled-incentive spend impact.
type BudgetMode string

const (
	BudgetNone       BudgetMode = "none"
	BudgetNeutral    BudgetMode = "neutral"
	BudgetCapPct     BudgetMode = "cap_pct"
	BudgetCapDollars BudgetMode = "cap_dollars"
)

// SearchBounds bounds the candidate CF range around the current CF.
type SearchBounds struct {
	MaxDecreasePct float64 `json:"maxDecreasePct"` // percent below current CF
	MaxIncreasePct float64 `json:"maxIncreasePct"` // percent above current CF
	FloorCF        float64 `json:"floorCF,omitempty"`
	CeilingCF      float64 `json:"ceilingCF,omitempty"`
	// StepPct is the grid granularity as a percent of the current CF.
	StepPct float64 `json:"stepPct"`
}

// BudgetConstraint limits aggregate spend impact.
type BudgetConstraint struct {
	Mode       BudgetMode `json:"mode"`
	CapPercent float64    `json:"capPercent,omitempty"`
	CapDollars float64    `json:"capDollars,omitempty"`
}

// EligibilityRules filter providers out of the optimization pool.
type EligibilityRules struct {
	MinBasisFTE     float64 `json:"minBasisFTE"`
	MinWRVUs        float64 `json:"minWRVUs"`
	ExcludeOnLeave  bool    `json:"excludeOnLeave"`
	MinTenureMonths float64 `json:"minTenureMonths,omitempty"` // 0 disables the rule
}

// GovernanceThresholds cap and classify recommendations.
type GovernanceThresholds struct {
	HardCapPercentile          float64 `json:"hardCapPercentile"`
	SoftCapPercentile          float64 `json:"softCapPercentile"`
	FMVRedFlagPercentile       float64 `json:"fmvRedFlagPercentile"`
	AlignmentTolerance         float64 `json:"alignmentTolerance"`
	MinMeaningfulChangePct     float64 `json:"minMeaningfulChangePct"`
	MaxRecommendedCFPercentile float64 `json:"maxRecommendedCFPercentile,omitempty"` // 0 disables the cap
}

// Settings is the full configuration for a CF-optimization run.
type Settings struct {
	Objective        Objective            `json:"objective"`
	TargetPercentile float64              `json:"targetPercentile,omitempty"`
	HybridWeight     float64              `json:"hybridWeight,omitempty"` // weight on the fixed-target term
	Metric           ErrorMetric          `json:"metric"`
	Bounds           SearchBounds         `json:"bounds"`
	Budget           BudgetConstraint     `json:"budget"`
	OutlierMethod    engine.OutlierMethod `json:"outlierMethod"`
	OutlierThreshold float64              `json:"outlierThreshold,omitempty"`
	Eligibility      EligibilityRules     `json:"eligibility"`
	ManualInclude    []string             `json:"manualInclude,omitempty"`
	ManualExclude    []string             `json:"manualExclude,omitempty"`
	Governance       GovernanceThresholds `json:"governance"`
	// Scenario supplies the base inputs for TCC component assembly; its CF
	// sourcing is replaced by each search candidate.
	Scenario engine.ScenarioInputs `json:"scenario"`
	Globals  engine.Globals        `json:"globals"`
}

// DefaultSettings returns the engine defaults for a run.
func DefaultSettings() Settings {
	return Settings{
		Objective: ObjectiveAlignPercentile,
		Metric:    MetricSquared,
		Bounds: SearchBounds{
			MaxDecreasePct: 20,
			MaxIncreasePct: 20,
			StepPct:        0.5,
		},
		Budget:        BudgetConstraint{Mode: BudgetNone},
		OutlierMethod: engine.OutlierIQR,
		Eligibility: EligibilityRules{
			MinBasisFTE:    0.25,
			ExcludeOnLeave: true,
		},
		Governance: GovernanceThresholds{
			HardCapPercentile:      75,
			SoftCapPercentile:      65,
			FMVRedFlagPercentile:   90,
			AlignmentTolerance:     10,
			MinMeaningfulChangePct: 1.0,
		},
		Scenario: engine.ScenarioInputs{
			CFMode:          engine.CFModeTargetPercentile,
			ThresholdMethod: engine.ThresholdDerived,
		},
		Globals: engine.DefaultGlobals(),
	}
}

// Normalized recovers malformed fields to defaults. Settings loaded from
// files or API payloads pass through here before use, so a bad objective
// string or a zero search step degrades to defaults instead of failing.
func (s Settings) Normalized() Settings {
	def := DefaultSettings()

	switch s.Objective {
	case ObjectiveAlignPercentile, ObjectiveTargetFixed, ObjectiveHybrid:
	default:
		s.Objective = def.Objective
	}
	switch s.Metric {
	case MetricSquared, MetricAbsolute:
	default:
		s.Metric = def.Metric
	}
	switch s.Budget.Mode {
	case BudgetNone, BudgetNeutral, BudgetCapPct, BudgetCapDollars:
	default:
		s.Budget.Mode = def.Budget.Mode
	}
	switch s.OutlierMethod {
	case engine.OutlierNone, engine.OutlierIQR, engine.OutlierMADZ:
	default:
		s.OutlierMethod = def.OutlierMethod
	}

	if s.Bounds.MaxDecreasePct <= 0 {
		s.Bounds.MaxDecreasePct = def.Bounds.MaxDecreasePct
	}
	if s.Bounds.MaxIncreasePct <= 0 {
		s.Bounds.MaxIncreasePct = def.Bounds.MaxIncreasePct
	}
	if s.Bounds.StepPct <= 0 {
		s.Bounds.StepPct = def.Bounds.StepPct
	}

	if (s.Objective == ObjectiveTargetFixed || s.Objective == ObjectiveHybrid) && s.TargetPercentile <= 0 {
		s.TargetPercentile = 50
	}
	if s.Objective == ObjectiveHybrid && (s.HybridWeight <= 0 || s.HybridWeight >= 1) {
		s.HybridWeight = 0.5
	}

	if s.Governance.HardCapPercentile <= 0 {
		s.Governance.HardCapPercentile = def.Governance.HardCapPercentile
	}
	if s.Governance.SoftCapPercentile <= 0 {
		s.Governance.SoftCapPercentile = def.Governance.SoftCapPercentile
	}
	if s.Governance.FMVRedFlagPercentile <= 0 {
		s.Governance.FMVRedFlagPercentile = def.Governance.FMVRedFlagPercentile
	}
	if s.Governance.AlignmentTolerance <= 0 {
		s.Governance.AlignmentTolerance = def.Governance.AlignmentTolerance
	}
	if s.Governance.MinMeaningfulChangePct <= 0 {
		s.Governance.MinMeaningfulChangePct = def.Governance.MinMeaningfulChangePct
	}

	if s.Scenario.CFMode == "" {
		s.Scenario.CFMode = def.Scenario.CFMode
	}
	if s.Scenario.ThresholdMethod == "" {
		s.Scenario.ThresholdMethod = def.Scenario.ThresholdMethod
	}

	// Zero-valued globals mean "use the default" everywhere; fill them
	// here so the roll-up reads real band edges, not a [0,0] band.
	s.Globals = s.Globals.Normalized()

	return s
}
