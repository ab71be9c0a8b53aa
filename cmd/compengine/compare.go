package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warp/comp-engine/compare"
)

var compareLabels []string

var compareCmd = &cobra.Command{
	Use:   "compare RUN_ID RUN_ID [RUN_ID [RUN_ID]]",
	Short: "Diff archived optimization runs",
	Args:  cobra.RangeArgs(2, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer runStore.Close()

		inputs := make([]compare.RunInput, 0, len(args))
		for i, id := range args {
			run, err := runStore.GetRun(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("loading run %s: %w", id, err)
			}
			in := compare.RunInput{Run: run}
			if i < len(compareLabels) {
				in.Label = compareLabels[i]
			}
			inputs = append(inputs, in)
		}

		result, err := compare.CompareRuns(inputs)
		if err != nil {
			return err
		}

		for _, rs := range result.Runs {
			fmt.Printf("%-12s %d specialties  spend %+.0f  aligned %d  in-band %d\n",
				rs.Label, rs.SpecialtyCount, rs.Totals.SpendImpact,
				rs.Totals.AlignedSpecialties, rs.Totals.InBandSpecialties)
		}
		fmt.Println()
		for _, line := range result.Narrative {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringSliceVar(&compareLabels, "label", nil, "positional labels for the runs")
	rootCmd.AddCommand(compareCmd)
}
