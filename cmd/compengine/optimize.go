package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/comp-engine/export"
	"github.com/warp/comp-engine/optimizer"
)

var optimizeFlags struct {
	providers   string
	market      string
	synonyms    string
	settings    string
	specialties []string
	scenario    string
	out         string
	save        bool
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search conversion factors per specialty and recommend changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, marketRows, synonyms, err := loadInputs(optimizeFlags.providers, optimizeFlags.market, optimizeFlags.synonyms)
		if err != nil {
			return err
		}

		settings, err := loadSettings(optimizeFlags.settings)
		if err != nil {
			return err
		}
		settings.Globals = cfg.Globals()

		run, err := optimizer.RunAllSpecialties(cmd.Context(), providers, marketRows, settings, optimizer.RunOptions{
			ScenarioName:    optimizeFlags.scenario,
			Synonyms:        synonyms,
			SpecialtyFilter: optimizeFlags.specialties,
			Logger:          logger,
			OnProgress: func(done, total int, specialty string) {
				logger.Info("optimized specialty",
					zap.String("specialty", specialty),
					zap.Int("done", done), zap.Int("total", total))
			},
		})
		if err != nil {
			return err
		}

		if optimizeFlags.save {
			runStore, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer runStore.Close()
			if err := runStore.SaveRun(cmd.Context(), run); err != nil {
				return err
			}
			logger.Info("run archived", zap.String("runId", run.RunID))
		}

		if optimizeFlags.out != "" {
			if err := export.WriteRunXLSX(optimizeFlags.out, run); err != nil {
				return err
			}
			logger.Info("workbook written", zap.String("out", optimizeFlags.out))
		}

		printRunSummary(run)
		return nil
	},
}

// loadSettings reads optimizer settings from a JSON file, or returns
// the defaults when no file is given.
func loadSettings(path string) (optimizer.Settings, error) {
	settings := optimizer.DefaultSettings()
	if path == "" {
		return settings, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return settings, fmt.Errorf("reading settings file: %w", err)
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return settings, fmt.Errorf("parsing settings file: %w", err)
	}
	return settings, nil
}

func printRunSummary(run *optimizer.RunResult) {
	fmt.Printf("Run %s: %d specialties\n", run.RunID, len(run.Specialties))
	for _, sp := range run.Specialties {
		fmt.Printf("  %-40s %-17s %-6s CF %.2f -> %.2f (%+.1f%%)\n",
			sp.Specialty, sp.Action, sp.Status, sp.CurrentCF, sp.RecommendedCF, sp.PercentChange)
	}
	fmt.Printf("Total spend impact: %.2f across %d included providers\n",
		run.Totals.SpendImpact, run.Totals.ProvidersIncluded)
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizeFlags.providers, "providers", "", "provider roster CSV (required)")
	optimizeCmd.Flags().StringVar(&optimizeFlags.market, "market", "", "market survey CSV or XLSX (required)")
	optimizeCmd.Flags().StringVar(&optimizeFlags.synonyms, "synonyms", "", "specialty synonym CSV")
	optimizeCmd.Flags().StringVar(&optimizeFlags.settings, "settings", "", "optimizer settings JSON (defaults if omitted)")
	optimizeCmd.Flags().StringSliceVar(&optimizeFlags.specialties, "specialty", nil, "restrict to these specialties")
	optimizeCmd.Flags().StringVar(&optimizeFlags.scenario, "name", "", "scenario name recorded on the run")
	optimizeCmd.Flags().StringVar(&optimizeFlags.out, "out", "", "output workbook path")
	optimizeCmd.Flags().BoolVar(&optimizeFlags.save, "save", false, "archive the run to the configured store")
	_ = optimizeCmd.MarkFlagRequired("providers")
	_ = optimizeCmd.MarkFlagRequired("market")
	rootCmd.AddCommand(optimizeCmd)
}
