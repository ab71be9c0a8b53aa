package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/comp-engine/optimizer"
)

var sweepFlags struct {
	providers   string
	market      string
	synonyms    string
	settings    string
	percentiles []float64
	specialties []string
	out         string
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate fixed CF percentiles without recommending",
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, marketRows, synonyms, err := loadInputs(sweepFlags.providers, sweepFlags.market, sweepFlags.synonyms)
		if err != nil {
			return err
		}

		settings, err := loadSettings(sweepFlags.settings)
		if err != nil {
			return err
		}
		settings.Globals = cfg.Globals()

		result, err := optimizer.RunCFSweep(providers, marketRows, settings, optimizer.SweepOptions{
			CFPercentiles:   sweepFlags.percentiles,
			Synonyms:        synonyms,
			SpecialtyFilter: sweepFlags.specialties,
		})
		if err != nil {
			return err
		}

		if sweepFlags.out != "" {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			return os.WriteFile(sweepFlags.out, data, 0o644)
		}

		for _, sp := range result.Specialties {
			fmt.Printf("%s (current CF %.2f, %d included)\n", sp.Specialty, sp.CurrentCF, sp.IncludedCount)
			for _, pt := range sp.Points {
				fmt.Printf("  P%-4.1f CF %.2f  mean TCC %%ile %.1f  gap %+.1f  spend %+.0f\n",
					pt.CFPercentile, pt.CF, pt.MeanModeledTCCPercentile, pt.MeanGap, pt.SpendImpact)
			}
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepFlags.providers, "providers", "", "provider roster CSV (required)")
	sweepCmd.Flags().StringVar(&sweepFlags.market, "market", "", "market survey CSV or XLSX (required)")
	sweepCmd.Flags().StringVar(&sweepFlags.synonyms, "synonyms", "", "specialty synonym CSV")
	sweepCmd.Flags().StringVar(&sweepFlags.settings, "settings", "", "optimizer settings JSON")
	sweepCmd.Flags().Float64SliceVar(&sweepFlags.percentiles, "percentile", []float64{25, 40, 50, 60, 75}, "CF percentiles to evaluate")
	sweepCmd.Flags().StringSliceVar(&sweepFlags.specialties, "specialty", nil, "restrict to these specialties")
	sweepCmd.Flags().StringVar(&sweepFlags.out, "out", "", "write JSON results to this path instead of stdout")
	_ = sweepCmd.MarkFlagRequired("providers")
	_ = sweepCmd.MarkFlagRequired("market")
	rootCmd.AddCommand(sweepCmd)
}
