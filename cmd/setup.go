package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)

	// Load existing config or defaults
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to aiopt!")
	fmt.Println()

	// 1. Usage log path
	fmt.Println("  1. Usage log path")
	fmt.Println("     Where collected usage events live (.jsonl or .csv).")
	fmt.Printf("     Current: %s\n", cfg.General.InputPath)
	fmt.Print("     > ")
	input, _ := reader.ReadString('\n')
	if input = strings.TrimSpace(input); input != "" {
		cfg.General.InputPath = input
	}
	fmt.Println()

	// 2. Output directory
	fmt.Println("  2. Report output directory")
	fmt.Printf("     Current: %s\n", cfg.General.OutDir)
	fmt.Print("     > ")
	out, _ := reader.ReadString('\n')
	if out = strings.TrimSpace(out); out != "" {
		cfg.General.OutDir = out
	}
	fmt.Println()

	// 3. Monthly budget
	fmt.Println("  3. Monthly budget (USD)")
	fmt.Println("     Guard fails any candidate projected past this ceiling.")
	if cfg.Budget.MonthlyUSD != nil {
		fmt.Printf("     Current: $%.0f\n", *cfg.Budget.MonthlyUSD)
	} else {
		fmt.Println("     Current: not set")
	}
	fmt.Print("     > ")
	budget, _ := reader.ReadString('\n')
	if budget = strings.TrimSpace(budget); budget != "" {
		if v, err := strconv.ParseFloat(budget, 64); err == nil && v > 0 {
			cfg.Budget.MonthlyUSD = &v
		} else {
			fmt.Println("     Not a number, keeping previous value.")
		}
	}
	fmt.Println()

	// 4. Theme
	fmt.Println("  4. Color theme")
	fmt.Println("     (1) Flexoki Dark [default]")
	fmt.Println("     (2) Catppuccin Mocha")
	fmt.Println("     (3) Terminal (ANSI 16)")
	fmt.Print("     > ")
	themeChoice, _ := reader.ReadString('\n')
	switch strings.TrimSpace(themeChoice) {
	case "2":
		cfg.Appearance.Theme = "catppuccin-mocha"
	case "3":
		cfg.Appearance.Theme = "terminal"
	default:
		cfg.Appearance.Theme = "flexoki-dark"
	}

	// Save
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `aiopt setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}
