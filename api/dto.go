/*
dto.go - Request and response shapes

PURPOSE:
  Wire types for the HTTP API. The calculation endpoints are stateless:
  every request carries its own provider roster, market data, and
  settings. Only runs (and the jobs that produce them) live server-side.
*/
package api

import (
	"time"

	"github.com/warp/comp-engine/compare"
	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/optimizer"
)

// MatchRequest resolves one specialty name against a market table.
type MatchRequest struct {
	Specialty  string             `json:"specialty"`
	MarketRows []engine.MarketRow `json:"marketRows"`
	Synonyms   map[string]string  `json:"synonyms,omitempty"`
}

// MatchResponse reports the resolved row and how it was found.
type MatchResponse struct {
	Status    engine.MatchStatus `json:"status"`
	Specialty string             `json:"specialty,omitempty"` // matched row's specialty
	Row       *engine.MarketRow  `json:"row,omitempty"`
}

// ScenarioRequest models one provider under one scenario.
type ScenarioRequest struct {
	Provider  engine.ProviderRecord `json:"provider"`
	MarketRow engine.MarketRow      `json:"marketRow"`
	Inputs    engine.ScenarioInputs `json:"inputs"`
	Globals   *engine.Globals       `json:"globals,omitempty"`
}

// BatchRequest runs every provider through every scenario.
type BatchRequest struct {
	Providers  []engine.ProviderRecord `json:"providers"`
	MarketRows []engine.MarketRow      `json:"marketRows"`
	Scenarios  []engine.ScenarioInputs `json:"scenarios"`
	Synonyms   map[string]string       `json:"synonyms,omitempty"`
	Globals    *engine.Globals         `json:"globals,omitempty"`
}

// OptimizeRequest starts an asynchronous optimization job.
type OptimizeRequest struct {
	Providers       []engine.ProviderRecord `json:"providers"`
	MarketRows      []engine.MarketRow      `json:"marketRows"`
	Settings        optimizer.Settings      `json:"settings"`
	Synonyms        map[string]string       `json:"synonyms,omitempty"`
	SpecialtyFilter []string                `json:"specialtyFilter,omitempty"`
	ScenarioID      string                  `json:"scenarioId,omitempty"`
	ScenarioName    string                  `json:"scenarioName,omitempty"`
}

// SweepRequest evaluates fixed CF percentiles without recommending.
type SweepRequest struct {
	Providers       []engine.ProviderRecord `json:"providers"`
	MarketRows      []engine.MarketRow      `json:"marketRows"`
	Settings        optimizer.Settings      `json:"settings"`
	CFPercentiles   []float64               `json:"cfPercentiles"`
	Synonyms        map[string]string       `json:"synonyms,omitempty"`
	SpecialtyFilter []string                `json:"specialtyFilter,omitempty"`
}

// CompareRequest diffs archived runs by ID.
type CompareRequest struct {
	RunIDs []string `json:"runIds"`
	Labels []string `json:"labels,omitempty"` // optional, positional
}

// CompareResponse wraps the comparison output.
type CompareResponse struct {
	Comparison *compare.ComparisonResult `json:"comparison"`
}

// JobStatus is the lifecycle state of an optimization job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// JobProgress is a point-in-time snapshot of a running job.
type JobProgress struct {
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	Specialty string `json:"specialty,omitempty"` // last completed
}

// JobView is the API representation of a job.
type JobView struct {
	JobID     string               `json:"jobId"`
	Status    JobStatus            `json:"status"`
	Progress  JobProgress          `json:"progress"`
	StartedAt time.Time            `json:"startedAt"`
	EndedAt   *time.Time           `json:"endedAt,omitempty"`
	Error     string               `json:"error,omitempty"`
	Result    *optimizer.RunResult `json:"result,omitempty"`
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
}
