/*
run.go - Run orchestration across specialties

PURPOSE:
  Drives the full optimizer pipeline: group providers by matched
  specialty, filter, search, classify, and roll up. Emits "specialty N of
  M" progress and honors context cancellation between specialties. The
  computation itself is synchronous and deterministic; callers wanting a
  responsive surface run this on their own worker (see api/jobs.go).
*/
package optimizer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/comp-engine/engine"
)

// RunOptions carries the per-run context around the settings.
type RunOptions struct {
	ScenarioID   string
	ScenarioName string
	Synonyms     map[string]string
	// SpecialtyFilter restricts the run to the named specialties.
	SpecialtyFilter []string
	// OnProgress receives (done, total, specialty) after each specialty.
	OnProgress func(done, total int, specialty string)
	Logger     *zap.Logger
}

// RunAllSpecialties executes one optimization run. The only error paths
// are cancellation and an empty provider list; per-specialty problems
// degrade to NO_RECOMMENDATION results instead.
func RunAllSpecialties(ctx context.Context, providers []engine.ProviderRecord, marketRows []engine.MarketRow, settings Settings, opts RunOptions) (*RunResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	settings = settings.Normalized()

	groups := groupProviders(providers, marketRows, opts.Synonyms, opts.SpecialtyFilter, settings)
	results := make([]SpecialtyResult, 0, len(groups))

	for i, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		applyEligibility(g, settings)
		applyOutlierFilter(g, settings)

		included := g.includedMembers()
		var res SpecialtyResult
		if g.row == nil || len(included) == 0 {
			res = noRecommendationResult(g, settings)
		} else {
			outcome := runSearch(g, included, settings)
			res = buildSpecialtyResult(g, outcome, included, settings)
		}
		results = append(results, res)

		logger.Debug("optimizer specialty complete",
			zap.String("specialty", g.name),
			zap.String("action", string(res.Action)),
			zap.Float64("recommendedCF", res.RecommendedCF),
			zap.Int("included", res.IncludedCount),
			zap.Int("excluded", res.ExcludedCount),
		)
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(groups), g.name)
		}
	}

	return &RunResult{
		RunID:        uuid.NewString(),
		ScenarioID:   opts.ScenarioID,
		ScenarioName: opts.ScenarioName,
		CreatedAt:    time.Now().UTC(),
		Settings:     settings,
		Specialties:  results,
		Totals:       rollUp(results, settings),
	}, nil
}

// rollUp aggregates specialty results into run totals. Dollar sums go
// through decimal so totals are independent of specialty ordering.
func rollUp(results []SpecialtyResult, settings Settings) RunTotals {
	var totals RunTotals
	spend := decimal.Zero
	incentive := decimal.Zero

	var tccPcts, wrvuPcts []float64
	for _, r := range results {
		spend = spend.Add(decimal.NewFromFloat(r.SpendImpact))
		incentive = incentive.Add(decimal.NewFromFloat(r.IncentiveDollars))
		totals.ProvidersIncluded += r.IncludedCount
		totals.ProvidersExcluded += r.ExcludedCount

		for _, p := range r.Providers {
			if !p.Included {
				continue
			}
			if absFloat(p.Gap) <= settings.Governance.AlignmentTolerance {
				totals.ProvidersAligned++
			}
			if p.ModeledTCCPercentile >= settings.Globals.PolicyBandLow &&
				p.ModeledTCCPercentile <= settings.Globals.PolicyBandHigh {
				totals.ProvidersInBand++
			}
		}

		if r.IncludedCount == 0 {
			continue
		}
		tccPcts = append(tccPcts, r.MeanModeledTCCPercentile)
		wrvuPcts = append(wrvuPcts, r.MeanWRVUPercentile)

		if absFloat(r.PostAlignmentGap) <= settings.Governance.AlignmentTolerance {
			totals.AlignedSpecialties++
		}
		if r.MeanModeledTCCPercentile >= settings.Globals.PolicyBandLow &&
			r.MeanModeledTCCPercentile <= settings.Globals.PolicyBandHigh {
			totals.InBandSpecialties++
		}
	}

	totals.SpendImpact = spend.InexactFloat64()
	totals.IncentiveDollars = incentive.InexactFloat64()
	totals.MeanTCCPercentile = mean(tccPcts)
	totals.MeanWRVUPercentile = mean(wrvuPcts)
	return totals
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
