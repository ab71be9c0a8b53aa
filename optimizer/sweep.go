/*
sweep.go - Read-only CF sweep

PURPOSE:
  The what-if variant of the optimizer: filters run once, then a
  caller-supplied list of CF percentiles is evaluated as-is. No search, no
  caps, no recommendation; the output reports modeled outcomes at each
  candidate so callers can compare positions side by side.
*/
package optimizer

import (
	"github.com/warp/comp-engine/engine"
)

// SweepOptions configures a CF sweep.
type SweepOptions struct {
	CFPercentiles   []float64
	Synonyms        map[string]string
	SpecialtyFilter []string
}

// RunCFSweep evaluates the supplied CF percentiles for every specialty
// after eligibility and outlier filtering.
func RunCFSweep(providers []engine.ProviderRecord, marketRows []engine.MarketRow, settings Settings, opts SweepOptions) (*SweepResult, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	if len(opts.CFPercentiles) == 0 {
		return nil, ErrNoCFPercentiles
	}
	settings = settings.Normalized()

	groups := groupProviders(providers, marketRows, opts.Synonyms, opts.SpecialtyFilter, settings)
	out := &SweepResult{CFPercentiles: opts.CFPercentiles}

	for _, g := range groups {
		applyEligibility(g, settings)
		applyOutlierFilter(g, settings)
		included := g.includedMembers()

		res := SweepSpecialtyResult{
			Specialty:     g.name,
			IncludedCount: len(included),
			ExcludedCount: len(g.members) - len(included),
		}

		if g.row != nil {
			res.CurrentCF = specialtyCurrentCF(g.members, *g.row)
		}

		if g.row != nil && len(included) > 0 {
			for _, pct := range opts.CFPercentiles {
				cf := g.row.CF.ValueAt(pct)
				eval := evaluateCandidate(cf, included, *g.row, settings)
				res.Points = append(res.Points, SweepPoint{
					CFPercentile:             pct,
					CF:                       cf,
					MeanModeledTCCPercentile: eval.meanModeledTCCPct,
					MeanGap:                  eval.meanGap,
					MeanAbsError:             eval.meanAbsDeviation,
					SpendImpact:              eval.spendImpact,
					ProvidersOverHardCap:     eval.overHardCap,
				})
			}
		}

		res.Providers = buildContexts(g, included, candidateEval{})
		out.Specialties = append(out.Specialties, res)
	}

	return out, nil
}
