package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/comp-engine/dataset"
	"github.com/warp/comp-engine/engine"
	"github.com/warp/comp-engine/export"
)

var batchFlags struct {
	providers string
	market    string
	synonyms  string
	scenarios string
	out       string
	workers   int
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Model every provider under every scenario and export a workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		providers, marketRows, synonyms, err := loadInputs(batchFlags.providers, batchFlags.market, batchFlags.synonyms)
		if err != nil {
			return err
		}

		scenarios, err := loadScenarios(batchFlags.scenarios)
		if err != nil {
			return err
		}

		results := engine.RunBatch(providers, marketRows, scenarios, engine.BatchOptions{
			Synonyms:    synonyms,
			Globals:     cfg.Globals(),
			Parallelism: batchFlags.workers,
			OnProgress: func(done, total int) {
				logger.Info("batch progress", zap.Int("done", done), zap.Int("total", total))
			},
		})

		if err := export.WriteBatchXLSX(batchFlags.out, &results); err != nil {
			return err
		}
		logger.Info("batch complete",
			zap.Int("providers", results.ProviderCount),
			zap.Int("scenarios", results.ScenarioCount),
			zap.Int("missingMarket", results.MissingCount),
			zap.String("out", batchFlags.out))
		return nil
	},
}

// loadInputs reads the provider roster, market table (CSV or XLSX by
// extension), and optional synonym map.
func loadInputs(providerPath, marketPath, synonymPath string) ([]engine.ProviderRecord, []engine.MarketRow, map[string]string, error) {
	providers, err := dataset.LoadProvidersCSV(providerPath)
	if err != nil {
		return nil, nil, nil, err
	}

	var marketRows []engine.MarketRow
	if strings.EqualFold(filepath.Ext(marketPath), ".xlsx") {
		marketRows, err = dataset.LoadMarketXLSX(marketPath, dataset.XLSXOptions{})
	} else {
		marketRows, err = dataset.LoadMarketCSV(marketPath)
	}
	if err != nil {
		return nil, nil, nil, err
	}

	var synonyms map[string]string
	if synonymPath != "" {
		synonyms, err = dataset.LoadSynonymsCSV(synonymPath)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return providers, marketRows, synonyms, nil
}

// loadScenarios reads scenario definitions from a JSON file.
func loadScenarios(path string) ([]engine.ScenarioInputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}
	var scenarios []engine.ScenarioInputs
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parsing scenario file: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("scenario file %s defines no scenarios", path)
	}
	return scenarios, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFlags.providers, "providers", "", "provider roster CSV (required)")
	batchCmd.Flags().StringVar(&batchFlags.market, "market", "", "market survey CSV or XLSX (required)")
	batchCmd.Flags().StringVar(&batchFlags.synonyms, "synonyms", "", "specialty synonym CSV")
	batchCmd.Flags().StringVar(&batchFlags.scenarios, "scenarios", "", "scenario definitions JSON (required)")
	batchCmd.Flags().StringVar(&batchFlags.out, "out", "batch-results.xlsx", "output workbook path")
	batchCmd.Flags().IntVar(&batchFlags.workers, "workers", 0, "parallel workers (0 = serial)")
	_ = batchCmd.MarkFlagRequired("providers")
	_ = batchCmd.MarkFlagRequired("market")
	_ = batchCmd.MarkFlagRequired("scenarios")
	rootCmd.AddCommand(batchCmd)
}
