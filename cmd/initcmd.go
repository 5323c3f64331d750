package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold input/output directories and a sample usage log",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

// sampleUsage exercises both known and unknown models so the first scan
// shows the full report surface.
const sampleUsage = `{"ts":"2026-01-01T09:00:00Z","provider":"openai","model":"gpt-4o","input_tokens":1200,"output_tokens":300,"retries":0,"feature_tag":"chat"}
{"ts":"2026-01-01T09:05:00Z","provider":"openai","model":"gpt-4o-mini","input_tokens":800,"output_tokens":150,"retries":1,"feature_tag":"summarize"}
{"ts":"2026-01-01T09:10:00Z","provider":"anthropic","model":"claude-sonnet-4","input_tokens":2500,"output_tokens":600,"retries":0,"feature_tag":"chat"}
{"ts":"2026-01-01T09:15:00Z","provider":"acme","model":"frontier-xl","input_tokens":500,"output_tokens":100,"retries":0,"feature_tag":"extract"}
{"ts":"2026-01-01T09:20:00Z","provider":"ollama","model":"llama3","input_tokens":4000,"output_tokens":900,"retries":0,"feature_tag":"classify"}
`

func runInit(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	in := inputPath(cfg)
	out := outDir(cfg)

	if err := os.MkdirAll(filepath.Dir(in), 0755); err != nil {
		return fmt.Errorf("creating input dir: %w", err)
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	if _, err := os.Stat(in); err == nil {
		fmt.Printf("  %s already exists, leaving it alone\n", in)
	} else {
		if err := os.WriteFile(in, []byte(sampleUsage), 0644); err != nil {
			return fmt.Errorf("writing sample log: %w", err)
		}
		fmt.Printf("  Wrote sample usage log to %s\n", in)
	}

	fmt.Printf("  Output directory: %s\n", out)
	fmt.Println("  Next: `aiopt scan` to analyze, `aiopt collect` to gather real usage.")
	return nil
}
