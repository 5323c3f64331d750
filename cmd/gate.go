package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/codescan"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Fail the build on codescan policy violations",
	Long: `Read the SARIF written by ` + "`aiopt codescan`" + ` and exit 1 if it contains
warning or error results. Intended for CI pipelines.`,
	RunE: runGate,
}

func init() {
	rootCmd.AddCommand(gateCmd)
}

func runGate(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}

	dir := outDir(cfg)
	result := codescan.RunGate(dir, cwd)
	text, exitCode := codescan.FormatGate(result, dir)

	fmt.Println(text)
	os.Exit(exitCode)
	return nil
}
