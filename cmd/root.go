// Package cmd implements the aiopt CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/config"
	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/rates"
	"github.com/aiopt-dev/aiopt/internal/source"
)

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

var (
	flagInput string
	flagOut   string
	flagRates string
	flagQuiet bool
)

var rootCmd = &cobra.Command{
	Use:     "aiopt",
	Short:   "LLM API cost analysis and regression guard",
	Long:    "Analyze LLM API usage logs: cost attribution, savings estimates, and a pre-deploy cost regression guard.",
	Version: version,
	RunE:    runScan,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagInput, "input", "i", "", "Usage log to analyze (.jsonl or .csv)")
	rootCmd.PersistentFlags().StringVarP(&flagOut, "out", "o", "", "Output directory for reports")
	rootCmd.PersistentFlags().StringVar(&flagRates, "rates", "", "Rate table JSON file (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// loadConfigOrDefault loads config, returning defaults on error so
// commands keep working with a corrupted config file.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Warning: %s (using defaults)\n", err)
		}
		return config.DefaultConfig()
	}
	return cfg
}

// inputPath resolves the usage log path: flag first, then config.
func inputPath(cfg config.Config) string {
	if flagInput != "" {
		return flagInput
	}
	return cfg.General.InputPath
}

// outDir resolves the report output directory: flag first, then config.
func outDir(cfg config.Config) string {
	if flagOut != "" {
		return flagOut
	}
	return cfg.General.OutDir
}

// loadRateTable resolves the active rate table: --rates wins over the
// config's table_path and overrides.
func loadRateTable(cfg config.Config) (*rates.Table, error) {
	if flagRates != "" {
		tbl, err := rates.LoadFile(flagRates)
		if err != nil {
			return nil, fmt.Errorf("loading rate table: %w", err)
		}
		return tbl, nil
	}
	return config.RateTable(cfg)
}

// loadEvents is the shared event loading path used by scan, policy, and guard.
func loadEvents(cfg config.Config) ([]model.UsageEvent, string, error) {
	path := inputPath(cfg)
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading %s...\n", path)
	}
	events, err := source.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("reading usage log: %w", err)
	}
	return events, path, nil
}
