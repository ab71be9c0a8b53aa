/*
eligibility.go - Specialty grouping, eligibility rules, outlier exclusion

PURPOSE:
  Stage 1 and 2 of the optimizer pipeline. Providers group by their
  matched market specialty; each group then passes through the configured
  eligibility rules and outlier filters. Every exclusion records a reason
  tag, and a provider can carry several reasons at once.

MANUAL OVERRIDES:
  Manually-included providers bypass all automatic exclusions except a
  missing market match (there is nothing to benchmark them against).
  An explicit manual exclusion outranks a manual inclusion.
*/
package optimizer

import (
	"sort"
	"strings"

	"github.com/warp/comp-engine/engine"
)

// memberState is one provider's working state inside a specialty group.
type memberState struct {
	provider engine.ProviderRecord
	baseline engine.ScenarioResult

	basisFTE    float64
	wrvus       float64
	wrvusPerFTE float64

	included bool
	reasons  []ExclusionReason
}

// specialtyGroup collects the providers resolved to one market row.
type specialtyGroup struct {
	name    string
	row     *engine.MarketRow // nil when no market match exists
	members []*memberState
}

// groupProviders resolves each provider's market match and buckets them by
// matched specialty. Unmatched providers bucket under their raw specialty
// so their exclusion is still visible in the output. Groups come back
// sorted by name for deterministic iteration.
func groupProviders(providers []engine.ProviderRecord, marketRows []engine.MarketRow, synonyms map[string]string, specialtyFilter []string, settings Settings) []*specialtyGroup {
	filter := make(map[string]bool, len(specialtyFilter))
	for _, s := range specialtyFilter {
		filter[engine.NormalizeSpecialty(s)] = true
	}

	byName := make(map[string]*specialtyGroup)
	var order []string

	for _, p := range providers {
		match := engine.MatchSpecialty(p, marketRows, synonyms)

		name := strings.TrimSpace(p.Specialty)
		var row *engine.MarketRow
		if match.Row != nil {
			name = match.Row.Specialty
			row = match.Row
		}
		if name == "" {
			name = "(unspecified)"
		}
		if len(filter) > 0 && !filter[engine.NormalizeSpecialty(name)] {
			continue
		}

		g, ok := byName[name]
		if !ok {
			g = &specialtyGroup{name: name, row: row}
			byName[name] = g
			order = append(order, name)
		}

		m := &memberState{
			provider:    p,
			basisFTE:    p.ClinicalFTE,
			wrvus:       engine.ResolvedTotalWRVUs(p),
			wrvusPerFTE: 0,
		}
		if m.basisFTE > 0 {
			m.wrvusPerFTE = m.wrvus / m.basisFTE
		}
		if row != nil {
			m.baseline = engine.ComputeScenario(p, *row, settings.Scenario, settings.Globals)
		}
		g.members = append(g.members, m)
	}

	sort.Strings(order)
	groups := make([]*specialtyGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, byName[name])
	}
	return groups
}

// applyEligibility runs the configured exclusion rules over a group.
func applyEligibility(g *specialtyGroup, settings Settings) {
	include := idSet(settings.ManualInclude)
	exclude := idSet(settings.ManualExclude)

	for _, m := range g.members {
		m.included = true

		if g.row == nil {
			m.exclude(ReasonMissingMarket)
			continue
		}

		if m.basisFTE <= 0 {
			m.exclude(ReasonNoFTEBasis)
		} else if m.basisFTE < settings.Eligibility.MinBasisFTE {
			m.exclude(ReasonLowFTE)
		}
		if settings.Eligibility.MinWRVUs > 0 && m.wrvus < settings.Eligibility.MinWRVUs {
			m.exclude(ReasonLowVolume)
		}
		if settings.Eligibility.ExcludeOnLeave && m.provider.OnLeave {
			m.exclude(ReasonOnLeave)
		}
		if settings.Eligibility.MinTenureMonths > 0 && m.provider.TenureMonths < settings.Eligibility.MinTenureMonths {
			m.exclude(ReasonNewHire)
		}

		// Manual inclusion restores automatically-excluded providers; the
		// recorded reasons stay for audit.
		if include[m.provider.ID] {
			m.included = true
		}
		if exclude[m.provider.ID] {
			m.exclude(ReasonManual)
		}
	}
}

// applyOutlierFilter excludes included providers flagged as outliers on
// any of the wRVU, TCC, or $/wRVU distributions. Manual includes bypass.
func applyOutlierFilter(g *specialtyGroup, settings Settings) {
	if settings.OutlierMethod == engine.OutlierNone {
		return
	}

	include := idSet(settings.ManualInclude)

	var pool []*memberState
	for _, m := range g.members {
		if m.included {
			pool = append(pool, m)
		}
	}
	if len(pool) == 0 {
		return
	}

	wrvuSample := make([]float64, len(pool))
	tccSample := make([]float64, len(pool))
	rateSample := make([]float64, len(pool))
	for i, m := range pool {
		wrvuSample[i] = m.wrvusPerFTE
		if m.basisFTE > 0 {
			tccSample[i] = m.baseline.CurrentTCC / m.basisFTE
		}
		if m.wrvus > 0 {
			rateSample[i] = m.baseline.CurrentTCC / m.wrvus
		}
	}

	dimensions := []struct {
		sample []float64
		reason ExclusionReason
	}{
		{wrvuSample, ReasonOutlierWRVU},
		{tccSample, ReasonOutlierTCC},
		{rateSample, ReasonOutlierRate},
	}

	for _, dim := range dimensions {
		flags := engine.DetectOutliers(dim.sample, settings.OutlierMethod, settings.OutlierThreshold)
		for i, flagged := range flags {
			if flagged && !include[pool[i].provider.ID] {
				pool[i].exclude(dim.reason)
			}
		}
	}
}

func (m *memberState) exclude(reason ExclusionReason) {
	m.included = false
	for _, r := range m.reasons {
		if r == reason {
			return
		}
	}
	m.reasons = append(m.reasons, reason)
}

func (g *specialtyGroup) includedMembers() []*memberState {
	var out []*memberState
	for _, m := range g.members {
		if m.included {
			out = append(out, m)
		}
	}
	return out
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
