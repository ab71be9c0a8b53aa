package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived optimization runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer runStore.Close()

		metas, err := runStore.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		if len(metas) == 0 {
			fmt.Println("no archived runs")
			return nil
		}
		for _, m := range metas {
			name := m.ScenarioName
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%s  %s  %-30s %d specialties  spend %+.0f\n",
				m.RunID, m.CreatedAt.Format("2006-01-02 15:04"), name,
				m.SpecialtyCount, m.SpendImpact)
		}
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete RUN_ID",
	Short: "Delete an archived run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runStore, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer runStore.Close()
		if err := runStore.DeleteRun(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("deleted", args[0])
		return nil
	},
}

func init() {
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}
