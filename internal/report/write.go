// Package report writes the scan artifacts: analysis.json, report.txt,
// cost-policy.json, and the fix-suggestion patches.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aiopt-dev/aiopt/internal/model"
)

// Names of the artifacts written under the output directory.
const (
	AnalysisFile = "analysis.json"
	ReportFile   = "report.txt"
	PolicyFile   = "cost-policy.json"
)

// WriteAll writes the three scan artifacts.
func WriteAll(outDir string, mode model.Mode, a model.Analysis, s model.Savings, p model.Policy) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := writeJSON(filepath.Join(outDir, AnalysisFile), a); err != nil {
		return err
	}
	if err := writeText(filepath.Join(outDir, ReportFile), renderReport(mode, a, s)); err != nil {
		return err
	}
	return WritePolicy(outDir, p)
}

// WritePolicy writes cost-policy.json alone, for the policy subcommand.
func WritePolicy(outDir string, p model.Policy) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return writeJSON(filepath.Join(outDir, PolicyFile), p)
}

// renderReport is the short human summary: batch mode, total, the guarded
// savings figure, and the three lever notes.
func renderReport(mode model.Mode, a model.Analysis, s model.Savings) string {
	modeNote := "retries multiply call cost"
	if mode == model.ModeAttemptLog {
		modeNote = "each attempt logged separately"
	}
	return fmt.Sprintf(
		"Batch mode: %s (%s)\nTotal cost: $%.2f\nEstimated savings: $%.2f\nSavings basis:\n%s\n%s\n%s\n",
		mode, modeNote, a.TotalCost, s.EstimatedSavingsTotal, s.Notes[0], s.Notes[1], s.Notes[2],
	)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeText(path, body string) error {
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
