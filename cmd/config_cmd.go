package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Input path: %s\n", cfg.General.InputPath)
	fmt.Printf("    Output dir: %s\n", cfg.General.OutDir)
	fmt.Println()

	fmt.Println("  [Budget]")
	if cfg.Budget.MonthlyUSD != nil {
		fmt.Printf("    Monthly budget: $%.0f\n", *cfg.Budget.MonthlyUSD)
	} else {
		fmt.Println("    Monthly budget: not set")
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Rates]")
	if cfg.Rates.TablePath != "" {
		fmt.Printf("    Table path: %s\n", cfg.Rates.TablePath)
	} else {
		fmt.Println("    Table path: built-in defaults")
	}
	if len(cfg.Rates.Overrides) > 0 {
		keys := make([]string, 0, len(cfg.Rates.Overrides))
		for k := range cfg.Rates.Overrides {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			o := cfg.Rates.Overrides[k]
			in, out := "-", "-"
			if o.InputPerMTok != nil {
				in = fmt.Sprintf("$%.2f", *o.InputPerMTok)
			}
			if o.OutputPerMTok != nil {
				out = fmt.Sprintf("$%.2f", *o.OutputPerMTok)
			}
			fmt.Printf("    Override %s: input %s, output %s per MTok\n", k, in, out)
		}
	}
	fmt.Println()

	fmt.Println("  Run `aiopt setup` to reconfigure.")
	return nil
}
