package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/cli"
	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/pipeline"
	"github.com/aiopt-dev/aiopt/internal/report"
	"github.com/aiopt-dev/aiopt/internal/store"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze a usage log and write cost reports",
	RunE:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	rt, err := loadRateTable(cfg)
	if err != nil {
		return err
	}

	events, path, err := loadEvents(cfg)
	if err != nil {
		return err
	}

	result := pipeline.Analyze(rt, events)
	result.Policy.GeneratedFrom.Input = path

	dir := outDir(cfg)
	if err := report.WriteAll(dir, result.Mode, result.Analysis, result.Savings, result.Policy); err != nil {
		return fmt.Errorf("writing reports: %w", err)
	}

	fixes := report.BuildTopFixes(result.Analysis, result.Savings)
	if err := report.WritePatches(dir, fixes); err != nil {
		return fmt.Errorf("writing patches: %w", err)
	}

	recordScan(path, len(events), result)

	fmt.Println()
	fmt.Println(cli.RenderTitle("COST SCAN"))
	fmt.Println()
	fmt.Printf("  Events:            %s (%s mode)\n", cli.FormatNumber(int64(len(events))), result.Mode)
	fmt.Printf("  Total cost:        %s\n", cli.FormatCost(result.Analysis.TotalCost))
	fmt.Printf("  Estimated savings: %s\n", cli.FormatCost(result.Savings.EstimatedSavingsTotal))
	fmt.Printf("  Rate table:        %s (%s)\n", result.Analysis.RateTableVersion, result.Analysis.RateTableDate)
	fmt.Println()

	printBreakdown("By Model", result.Analysis.ByModelTop)
	printBreakdown("By Feature", result.Analysis.ByFeatureTop)

	if len(result.Analysis.UnknownModels) > 0 {
		rows := make([][]string, 0, len(result.Analysis.UnknownModels))
		for _, u := range result.Analysis.UnknownModels {
			rows = append(rows, []string{u.Provider, u.Model, u.Reason})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Unknown Models (estimated rates)",
			Headers: []string{"Provider", "Model", "Reason"},
			Rows:    rows,
		}))
	}

	fmt.Printf("  Reports written to %s\n\n", dir)
	return nil
}

func printBreakdown(title string, rows []model.BreakdownRow) {
	if len(rows) == 0 {
		return
	}
	maxCost := rows[0].Cost
	for _, r := range rows {
		if r.Cost > maxCost {
			maxCost = r.Cost
		}
	}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Key,
			cli.FormatCost(r.Cost),
			fmt.Sprintf("%d", r.Events),
			cli.RenderHorizontalBar(r.Cost, maxCost, 24),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   title,
		Headers: []string{"Key", "Cost", "Events", ""},
		Rows:    tableRows,
	}))
}

// recordScan saves the run to the SQLite history. History failures are
// warnings, not errors: the reports on disk are the primary output.
func recordScan(path string, eventCount int, result pipeline.Result) {
	h, err := store.Open(store.DefaultPath())
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Warning: history unavailable: %s\n", err)
		}
		return
	}
	defer h.Close()

	if err := h.SaveScan(path, eventCount, result.Mode, result.Analysis, result.Savings); err != nil && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Warning: could not record run: %s\n", err)
	}
}
