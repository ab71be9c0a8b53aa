/*
batch.go - Providers x scenarios batch execution

PURPOSE:
  Runs every requested scenario for every provider. Each provider's market
  match is resolved once; each (provider, scenario) pair yields one row.
  Providers without a usable market match produce Missing rows with no
  results rather than errors.

ORDERING:
  Rows are stable: providers in input order, scenarios in input order
  within each provider. The parallel mode partitions by provider and
  writes into preassigned slots, so ordering is identical to serial.

RISK CLASSIFICATION:
  high:   any high-risk note, underpay-risk flag, or FMV flag
  medium: any warning
  low:    otherwise

SEE ALSO:
  - specialty.go: Match resolution
  - scenario.go: Per-pair computation
*/
package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize is the progress callback granularity in rows.
const DefaultChunkSize = 200

// RiskLevel classifies one batch row.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// BatchOptions configures a batch run. The zero value is usable.
type BatchOptions struct {
	Synonyms   map[string]string
	Globals    Globals
	OnProgress func(done, total int)
	ChunkSize  int
	// Parallelism > 1 partitions the provider list across goroutines.
	Parallelism int
}

// BatchRow is one (provider, scenario) result.
type BatchRow struct {
	ProviderID       string          `json:"providerId"`
	ProviderName     string          `json:"providerName"`
	Specialty        string          `json:"specialty"`
	Division         string          `json:"division,omitempty"`
	ScenarioID       string          `json:"scenarioId"`
	ScenarioName     string          `json:"scenarioName"`
	MatchStatus      MatchStatus     `json:"matchStatus"`
	MatchedSpecialty string          `json:"matchedSpecialty,omitempty"`
	Result           *ScenarioResult `json:"result,omitempty"`
	RiskLevel        RiskLevel       `json:"riskLevel"`
	Warnings         []string        `json:"warnings,omitempty"`
}

// BatchResults is the flat, ordered output of a batch run.
type BatchResults struct {
	Rows          []BatchRow `json:"rows"`
	ProviderCount int        `json:"providerCount"`
	ScenarioCount int        `json:"scenarioCount"`
	MissingCount  int        `json:"missingCount"`
}

// RunBatch executes all providers x all scenarios.
func RunBatch(providers []ProviderRecord, marketRows []MarketRow, scenarios []ScenarioInputs, opts BatchOptions) BatchResults {
	total := len(providers) * len(scenarios)
	rows := make([]BatchRow, total)

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	progress := newProgressTracker(total, chunk, opts.OnProgress)

	runProvider := func(pi int) {
		provider := providers[pi]
		match := MatchSpecialty(provider, marketRows, opts.Synonyms)
		for si, scenario := range scenarios {
			rows[pi*len(scenarios)+si] = buildRow(provider, match, scenario, opts.Globals)
			progress.advance(1)
		}
	}

	if opts.Parallelism > 1 && len(providers) > 1 {
		g, _ := errgroup.WithContext(context.Background())
		g.SetLimit(opts.Parallelism)
		for pi := range providers {
			pi := pi
			g.Go(func() error {
				runProvider(pi)
				return nil
			})
		}
		// Workers never return errors; Wait only joins them.
		_ = g.Wait()
	} else {
		for pi := range providers {
			runProvider(pi)
		}
	}

	progress.finish()

	missing := 0
	for i := range rows {
		if rows[i].MatchStatus == MatchMissing {
			missing++
		}
	}

	return BatchResults{
		Rows:          rows,
		ProviderCount: len(providers),
		ScenarioCount: len(scenarios),
		MissingCount:  missing,
	}
}

func buildRow(provider ProviderRecord, match MatchResult, scenario ScenarioInputs, globals Globals) BatchRow {
	row := BatchRow{
		ProviderID:   provider.ID,
		ProviderName: provider.Name,
		Specialty:    provider.Specialty,
		Division:     provider.Division,
		ScenarioID:   scenario.ID,
		ScenarioName: scenario.Name,
		MatchStatus:  match.Status,
	}

	if match.Status == MatchMissing || match.Row == nil {
		// No result, but the matcher warning still counts toward risk.
		row.RiskLevel = RiskMedium
		row.Warnings = []string{"No market benchmark for this specialty"}
		return row
	}
	row.MatchedSpecialty = match.Row.Specialty

	result := ComputeScenario(provider, *match.Row, scenario, globals)
	row.Result = &result

	// Accumulate matcher + calculator + risk notes into one list.
	row.Warnings = append(row.Warnings, result.Warnings...)
	row.Warnings = append(row.Warnings, result.HighRiskNotes...)
	if match.Status == MatchSynonym {
		row.Warnings = append(row.Warnings, "Specialty matched via synonym table")
	}

	switch {
	case len(result.HighRiskNotes) > 0 || result.Flags.UnderpayRisk || result.Flags.FMVCheckSuggested:
		row.RiskLevel = RiskHigh
	case len(row.Warnings) > 0:
		row.RiskLevel = RiskMedium
	default:
		row.RiskLevel = RiskLow
	}

	return row
}

// =============================================================================
// PROGRESS TRACKING
// =============================================================================

// progressTracker invokes the callback every chunkSize rows and once at the
// end. Safe for concurrent advance calls.
type progressTracker struct {
	mu       sync.Mutex
	done     int
	total    int
	chunk    int
	lastFire int
	fn       func(done, total int)
}

func newProgressTracker(total, chunk int, fn func(done, total int)) *progressTracker {
	return &progressTracker{total: total, chunk: chunk, fn: fn}
}

func (p *progressTracker) advance(n int) {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	p.done += n
	fire := p.done-p.lastFire >= p.chunk
	if fire {
		p.lastFire = p.done
	}
	done := p.done
	p.mu.Unlock()
	if fire {
		p.fn(done, p.total)
	}
}

func (p *progressTracker) finish() {
	if p.fn == nil {
		return
	}
	p.mu.Lock()
	fire := p.done != p.lastFire || p.done == 0
	p.lastFire = p.done
	done := p.done
	p.mu.Unlock()
	if fire && p.total > 0 {
		p.fn(done, p.total)
	}
}
