package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	rt, err := loadRateTable(cfg)
	if err != nil {
		return err
	}

	// Force TrueColor so background styling always emits ANSI codes;
	// lipgloss may otherwise detect an Ascii profile and drop colors.
	lipgloss.SetColorProfile(termenv.TrueColor)

	if err := tui.Run(cfg, inputPath(cfg), rt); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
