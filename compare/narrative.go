/*
narrative.go - Templated comparison narrative

PURPOSE:
  Deterministic plain-English sentences summarizing the differences
  between compared runs. No ranking beyond what the deltas state; the
  reader decides which run wins.
*/
package compare

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// buildNarrative produces one sentence per pairwise delta plus one
// sentence per specialty with a material CF spread.
func buildNarrative(res *ComparisonResult) []string {
	var lines []string

	for _, d := range res.Deltas {
		lines = append(lines, spendSentence(d))
		if d.AlignedSpecialtiesDelta != 0 {
			lines = append(lines, alignmentSentence(d))
		}
	}

	for _, sp := range res.Specialties {
		if divergent(sp) {
			lines = append(lines, fmt.Sprintf(
				"%s diverges across runs: recommended CF varies by %s per wRVU and spend impact by %s.",
				sp.Specialty, fmtRate(sp.CFSpread), fmtMoney(sp.SpendSpread)))
		}
	}
	return lines
}

func spendSentence(d PairDelta) string {
	switch {
	case d.SpendImpactDelta > 0:
		return fmt.Sprintf("%s spends %s more than %s.", d.ToLabel, fmtMoney(d.SpendImpactDelta), d.FromLabel)
	case d.SpendImpactDelta < 0:
		return fmt.Sprintf("%s spends %s less than %s.", d.ToLabel, fmtMoney(-d.SpendImpactDelta), d.FromLabel)
	default:
		return fmt.Sprintf("%s and %s have identical spend impact.", d.ToLabel, d.FromLabel)
	}
}

func alignmentSentence(d PairDelta) string {
	if d.AlignedSpecialtiesDelta > 0 {
		return fmt.Sprintf("%s aligns %d more specialties within tolerance than %s.",
			d.ToLabel, d.AlignedSpecialtiesDelta, d.FromLabel)
	}
	return fmt.Sprintf("%s aligns %d fewer specialties within tolerance than %s.",
		d.ToLabel, -d.AlignedSpecialtiesDelta, d.FromLabel)
}

// divergent reports whether a specialty row is worth a narrative line.
// A spread under half a dollar per wRVU is treated as noise.
func divergent(sp SpecialtyDelta) bool {
	return sp.CFSpread >= 0.5
}

func fmtMoney(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func fmtRate(v float64) string {
	return "$" + decimal.NewFromFloat(v).Round(2).StringFixed(2)
}
