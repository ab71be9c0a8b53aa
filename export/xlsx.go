/*
Package export writes calculation results to Excel workbooks.

PURPOSE:
  Committee-ready output. Batch results get one row per
  provider-scenario pair; optimizer runs get a specialty summary sheet
  plus a provider audit sheet so every recommendation can be traced to
  the members behind it.
*/
package export

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/optimizer"
)

// WriteBatchXLSX writes batch results to a workbook at path.
func WriteBatchXLSX(path string, results *engine.BatchResults) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Scenario Results")
	if err != nil {
		return eris.Wrap(err, "adding sheet")
	}

	writeHeader(sheet,
		"Provider ID", "Provider", "Specialty", "Division", "Scenario",
		"Match", "Matched Specialty", "Risk",
		"Current TCC", "Modeled TCC", "Current TCC %ile", "Modeled TCC %ile",
		"wRVU %ile", "Modeled CF", "Modeled Threshold",
		"Baseline Gap", "Modeled Gap", "Warnings")

	for _, row := range results.Rows {
		r := sheet.AddRow()
		r.AddCell().SetString(row.ProviderID)
		r.AddCell().SetString(row.ProviderName)
		r.AddCell().SetString(row.Specialty)
		r.AddCell().SetString(row.Division)
		r.AddCell().SetString(row.ScenarioName)
		r.AddCell().SetString(string(row.MatchStatus))
		r.AddCell().SetString(row.MatchedSpecialty)
		r.AddCell().SetString(string(row.RiskLevel))

		if row.Result == nil {
			// No market match; numeric columns stay blank.
			for i := 0; i < 9; i++ {
				r.AddCell()
			}
		} else {
			res := row.Result
			r.AddCell().SetFloat(res.CurrentTCC)
			r.AddCell().SetFloat(res.ModeledTCC)
			r.AddCell().SetFloat(res.CurrentTCCPercentile.Percentile)
			r.AddCell().SetFloat(res.ModeledTCCPercentile.Percentile)
			r.AddCell().SetFloat(res.WRVUPercentile.Percentile)
			r.AddCell().SetFloat(res.ModeledCF)
			r.AddCell().SetFloat(res.ModeledThreshold)
			r.AddCell().SetFloat(res.BaselineGap)
			r.AddCell().SetFloat(res.ModeledGap)
		}
		r.AddCell().SetString(joinWarnings(row.Warnings))
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "saving workbook %s", path)
	}
	return nil
}

// WriteRunXLSX writes an optimizer run to a workbook at path: one
// summary sheet across specialties and one audit sheet of providers.
func WriteRunXLSX(path string, run *optimizer.RunResult) error {
	f := xlsx.NewFile()

	summary, err := f.AddSheet("Recommendations")
	if err != nil {
		return eris.Wrap(err, "adding sheet")
	}
	writeHeader(summary,
		"Specialty", "Action", "Status",
		"Current CF", "Recommended CF", "Change %",
		"Pre Gap", "Post Gap", "Mean TCC %ile", "Mean wRVU %ile",
		"Spend Impact", "Included", "Excluded", "Constraints", "Headline")

	for _, sp := range run.Specialties {
		r := summary.AddRow()
		r.AddCell().SetString(sp.Specialty)
		r.AddCell().SetString(string(sp.Action))
		r.AddCell().SetString(string(sp.Status))
		r.AddCell().SetFloat(sp.CurrentCF)
		r.AddCell().SetFloat(sp.RecommendedCF)
		r.AddCell().SetFloat(sp.PercentChange)
		r.AddCell().SetFloat(sp.PreAlignmentGap)
		r.AddCell().SetFloat(sp.PostAlignmentGap)
		r.AddCell().SetFloat(sp.MeanModeledTCCPercentile)
		r.AddCell().SetFloat(sp.MeanWRVUPercentile)
		r.AddCell().SetFloat(sp.SpendImpact)
		r.AddCell().SetInt(sp.IncludedCount)
		r.AddCell().SetInt(sp.ExcludedCount)
		r.AddCell().SetString(joinWarnings(sp.Constraints))
		r.AddCell().SetString(sp.Explanation.Headline)
	}

	audit, err := f.AddSheet("Provider Detail")
	if err != nil {
		return eris.Wrap(err, "adding sheet")
	}
	writeHeader(audit,
		"Specialty", "Provider ID", "Provider", "Included", "Exclusion Reasons",
		"Basis FTE", "wRVUs", "wRVU %ile",
		"Baseline TCC", "Baseline TCC %ile", "Modeled TCC", "Modeled TCC %ile", "Gap")

	for _, sp := range run.Specialties {
		for _, p := range sp.Providers {
			r := audit.AddRow()
			r.AddCell().SetString(sp.Specialty)
			r.AddCell().SetString(p.ProviderID)
			r.AddCell().SetString(p.ProviderName)
			r.AddCell().SetBool(p.Included)
			r.AddCell().SetString(joinReasons(p.ExclusionReasons))
			r.AddCell().SetFloat(p.BasisFTE)
			r.AddCell().SetFloat(p.WRVUs)
			r.AddCell().SetFloat(p.WRVUPercentile)
			r.AddCell().SetFloat(p.BaselineTCC)
			r.AddCell().SetFloat(p.BaselineTCCPercentile)
			r.AddCell().SetFloat(p.ModeledTCC)
			r.AddCell().SetFloat(p.ModeledTCCPercentile)
			r.AddCell().SetFloat(p.Gap)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "saving workbook %s", path)
	}
	return nil
}

func writeHeader(sheet *xlsx.Sheet, titles ...string) {
	row := sheet.AddRow()
	for _, title := range titles {
		row.AddCell().SetString(title)
	}
}

func joinWarnings(items []string) string {
	return strings.Join(items, "; ")
}

func joinReasons(reasons []optimizer.ExclusionReason) string {
	items := make([]string, len(reasons))
	for i, r := range reasons {
		items[i] = string(r)
	}
	return joinWarnings(items)
}
