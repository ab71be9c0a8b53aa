/*
result.go - Optimizer output types

PURPOSE:
  The value objects produced by an optimization run: per-provider working
  contexts (for audit), per-specialty results, and the run-level roll-up.
  All are computed fresh per run and never mutated afterward.
*/
package optimizer

import "time"

// ExclusionReason tags why a provider was excluded. A provider can carry
// several reasons at once.
type ExclusionReason string

const (
	ReasonMissingMarket ExclusionReason = "missing_market"
	ReasonNoFTEBasis    ExclusionReason = "no_fte_basis"
	ReasonLowFTE        ExclusionReason = "low_fte"
	ReasonLowVolume     ExclusionReason = "low_wrvu_volume"
	ReasonOnLeave       ExclusionReason = "on_leave"
	ReasonNewHire       ExclusionReason = "new_hire"
	ReasonManual        ExclusionReason = "manual_exclude"
	ReasonOutlierWRVU   ExclusionReason = "outlier_wrvu"
	ReasonOutlierTCC    ExclusionReason = "outlier_tcc"
	ReasonOutlierRate   ExclusionReason = "outlier_rate"
)

// Action is the recommended move for a specialty.
type Action string

const (
	ActionIncrease         Action = "INCREASE"
	ActionDecrease         Action = "DECREASE"
	ActionHold             Action = "HOLD"
	ActionNoRecommendation Action = "NO_RECOMMENDATION"
)

// Status is the traffic-light governance classification.
type Status string

const (
	StatusGreen  Status = "GREEN"
	StatusYellow Status = "YELLOW"
	StatusRed    Status = "RED"
)

// Machine-readable constraint tags recorded on a specialty result.
const (
	ConstraintCFCapped           = "cf_capped"
	ConstraintCFPercentileCapped = "cf_percentile_capped"
	ConstraintBudgetCapped       = "budget_capped"
	ConstraintBudgetInfeasible   = "budget_infeasible"
	ConstraintAtSearchBound      = "at_search_bound"
)

// ProviderContext is one provider's working state within a specialty run.
type ProviderContext struct {
	ProviderID   string `json:"providerId"`
	ProviderName string `json:"providerName"`

	BasisFTE       float64 `json:"basisFTE"`
	WRVUs          float64 `json:"wrvus"`
	WRVUsPerFTE    float64 `json:"wrvusPerFTE"` // per 1.0 clinical FTE
	WRVUPercentile float64 `json:"wrvuPercentile"`

	BaselineTCC           float64 `json:"baselineTCC"`
	BaselineTCCPerFTE     float64 `json:"baselineTCCPerFTE"`
	BaselineTCCPercentile float64 `json:"baselineTCCPercentile"`

	ModeledTCC           float64 `json:"modeledTCC"`
	ModeledTCCPerFTE     float64 `json:"modeledTCCPerFTE"`
	ModeledTCCPercentile float64 `json:"modeledTCCPercentile"`

	Gap float64 `json:"gap"` // modeled TCC percentile minus wRVU percentile

	Included         bool              `json:"included"`
	ExclusionReasons []ExclusionReason `json:"exclusionReasons,omitempty"`
}

// Explanation is the deterministic human-readable summary for a specialty.
type Explanation struct {
	Headline  string   `json:"headline"`
	Why       []string `json:"why,omitempty"`       // up to 4 bullets
	NextSteps []string `json:"nextSteps,omitempty"` // up to 2 suggestions
}

// SpecialtyResult is the unit of optimizer output.
type SpecialtyResult struct {
	Specialty string `json:"specialty"`

	CurrentCF     float64 `json:"currentCF"`
	RecommendedCF float64 `json:"recommendedCF"`
	PercentChange float64 `json:"percentChange"`

	PreAlignmentGap  float64 `json:"preAlignmentGap"`
	PostAlignmentGap float64 `json:"postAlignmentGap"`
	PreMeanAbsError  float64 `json:"preMeanAbsError"`
	PostMeanAbsError float64 `json:"postMeanAbsError"`
	PreMeanSqError   float64 `json:"preMeanSqError"`
	PostMeanSqError  float64 `json:"postMeanSqError"`

	MeanModeledTCCPercentile float64 `json:"meanModeledTCCPercentile"`
	MeanWRVUPercentile       float64 `json:"meanWRVUPercentile"`
	SpendImpact              float64 `json:"spendImpact"`
	IncentiveDollars         float64 `json:"incentiveDollars"`

	IncludedCount int `json:"includedCount"`
	ExcludedCount int `json:"excludedCount"`

	PolicyOK    bool        `json:"policyOK"`
	Status      Status      `json:"status"`
	Action      Action      `json:"action"`
	Constraints []string    `json:"constraints,omitempty"`
	Explanation Explanation `json:"explanation"`

	Providers []ProviderContext `json:"providers"`
}

// RunTotals is the run-level roll-up across specialties.
type RunTotals struct {
	SpendImpact        float64 `json:"spendImpact"`
	IncentiveDollars   float64 `json:"incentiveDollars"`
	MeanTCCPercentile  float64 `json:"meanTCCPercentile"`
	MeanWRVUPercentile float64 `json:"meanWRVUPercentile"`
	ProvidersIncluded  int     `json:"providersIncluded"`
	ProvidersExcluded  int     `json:"providersExcluded"`
	AlignedSpecialties int     `json:"alignedSpecialties"`
	InBandSpecialties  int     `json:"inBandSpecialties"`
	// Provider-level counts over the included pool, from the per-provider
	// audit contexts rather than specialty means.
	ProvidersAligned int `json:"providersAligned"`
	ProvidersInBand  int `json:"providersInBand"`
}

// RunResult is one completed optimization run.
type RunResult struct {
	RunID        string            `json:"runId"`
	ScenarioID   string            `json:"scenarioId,omitempty"`
	ScenarioName string            `json:"scenarioName,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	Settings     Settings          `json:"settings"`
	Specialties  []SpecialtyResult `json:"specialties"`
	Totals       RunTotals         `json:"totals"`
}

// SweepPoint is one evaluated CF percentile in a what-if sweep.
type SweepPoint struct {
	CFPercentile             float64 `json:"cfPercentile"`
	CF                       float64 `json:"cf"`
	MeanModeledTCCPercentile float64 `json:"meanModeledTCCPercentile"`
	MeanGap                  float64 `json:"meanGap"`
	MeanAbsError             float64 `json:"meanAbsError"`
	SpendImpact              float64 `json:"spendImpact"`
	ProvidersOverHardCap     int     `json:"providersOverHardCap"`
}

// SweepSpecialtyResult reports modeled outcomes per candidate percentile
// for one specialty. Sweeps recommend nothing.
type SweepSpecialtyResult struct {
	Specialty     string            `json:"specialty"`
	CurrentCF     float64           `json:"currentCF"`
	IncludedCount int               `json:"includedCount"`
	ExcludedCount int               `json:"excludedCount"`
	Points        []SweepPoint      `json:"points"`
	Providers     []ProviderContext `json:"providers"`
}

// SweepResult is the output of a CF sweep across specialties.
type SweepResult struct {
	CFPercentiles []float64              `json:"cfPercentiles"`
	Specialties   []SweepSpecialtyResult `json:"specialties"`
}

// mean of a slice, zero for empty input.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
