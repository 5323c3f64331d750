package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/cli"
	"github.com/aiopt-dev/aiopt/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded scan and guard runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Runs to show per table")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	h, err := store.Open(store.DefaultPath())
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer h.Close()

	scans, err := h.ListScans(historyLimit)
	if err != nil {
		return fmt.Errorf("listing scans: %w", err)
	}
	guards, err := h.ListGuards(historyLimit)
	if err != nil {
		return fmt.Errorf("listing guard runs: %w", err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("HISTORY"))
	fmt.Println()

	if len(scans) == 0 && len(guards) == 0 {
		fmt.Println("  No recorded runs yet.")
		fmt.Println()
		return nil
	}

	if len(scans) > 0 {
		rows := make([][]string, 0, len(scans))
		for _, s := range scans {
			rows = append(rows, []string{
				s.RanAt.Format("2006-01-02 15:04"),
				s.InputPath,
				cli.FormatNumber(s.EventCount),
				s.Mode,
				cli.FormatCost(s.TotalCost),
				cli.FormatCost(s.EstimatedSavings),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Scans",
			Headers: []string{"When", "Input", "Events", "Mode", "Cost", "Savings"},
			Rows:    rows,
		}))
	}

	if len(guards) > 0 {
		rows := make([][]string, 0, len(guards))
		for _, g := range guards {
			candidate := g.CandidatePath
			if candidate == "" {
				candidate = "(knobs)"
			}
			rows = append(rows, []string{
				g.RanAt.Format("2006-01-02 15:04"),
				candidate,
				fmt.Sprintf("%d", g.ExitCode),
				cli.FormatCost(g.BaselineCost),
				cli.FormatCost(g.CandidateCost),
				fmt.Sprintf("%+.2f/mo", g.MonthlyDelta),
				g.Risk,
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Guard Runs",
			Headers: []string{"When", "Candidate", "Exit", "Baseline", "Candidate $", "Delta", "Risk"},
			Rows:    rows,
		}))
	}

	return nil
}
