package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/pipeline"
	"github.com/aiopt-dev/aiopt/internal/report"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Regenerate cost-policy.json from the usage log",
	RunE:  runPolicy,
}

func init() {
	rootCmd.AddCommand(policyCmd)
}

func runPolicy(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	rt, err := loadRateTable(cfg)
	if err != nil {
		return err
	}

	events, path, err := loadEvents(cfg)
	if err != nil {
		return err
	}

	policy := pipeline.BuildPolicy(rt, events)
	policy.GeneratedFrom.Input = path

	dir := outDir(cfg)
	if err := report.WritePolicy(dir, policy); err != nil {
		return fmt.Errorf("writing policy: %w", err)
	}

	fmt.Printf("  Wrote %s (%d rules, default provider %s)\n",
		filepath.Join(dir, report.PolicyFile), len(policy.Rules), policy.DefaultProvider)
	return nil
}
