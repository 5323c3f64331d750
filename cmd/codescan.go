package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/cli"
	"github.com/aiopt-dev/aiopt/internal/codescan"
)

const toolName = "aiopt"

var codescanDir string

var codescanCmd = &cobra.Command{
	Use:   "codescan",
	Short: "Lint a source tree for cost-risky LLM call patterns",
	Long: `Scan a source tree for patterns that tend to cause LLM cost accidents:
aggressive retry settings, hard-coded expensive models, and LLM calls
without timeouts. Findings are written as SARIF 2.1.0 for ` + "`aiopt gate`" + `.`,
	RunE: runCodescan,
}

func init() {
	codescanCmd.Flags().StringVar(&codescanDir, "dir", ".", "Source tree to scan")
	rootCmd.AddCommand(codescanCmd)
}

func runCodescan(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	findings, err := codescan.Run(codescanDir)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", codescanDir, err)
	}

	dir := outDir(cfg)
	if err := codescan.WriteSARIF(dir, toolName, version, findings); err != nil {
		return fmt.Errorf("writing SARIF: %w", err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("CODE SCAN"))
	fmt.Println()
	if len(findings) == 0 {
		fmt.Println("  No findings.")
	}
	for _, f := range findings {
		fmt.Printf("  [%s] %s:%d %s\n", f.Level, f.File, f.Line, f.Message)
	}
	fmt.Println()
	fmt.Printf("  Wrote %s (%d findings)\n\n", filepath.Join(dir, codescan.SARIFFile), len(findings))
	return nil
}
