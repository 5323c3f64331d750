package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/cli"
	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/pipeline"
	"github.com/aiopt-dev/aiopt/internal/source"
	"github.com/aiopt-dev/aiopt/internal/store"
)

var (
	guardModel        string
	guardProvider     string
	guardContextMult  float64
	guardOutputMult   float64
	guardRetriesDelta int64
	guardCallMult     float64
	guardBudget       float64
	guardCandidate    string
)

var guardCmd = &cobra.Command{
	Use:   "guard",
	Short: "Compare baseline usage against a candidate change",
	Long: `Simulate a deploy against the collected baseline usage and report the
projected monthly cost impact. Exit codes: 0 OK, 2 warn, 3 fail.

Describe the change with knobs (--model, --context-mult, ...) or pass a
second usage log with --candidate to diff two collected baselines.`,
	RunE: runGuard,
}

func init() {
	guardCmd.Flags().StringVar(&guardModel, "model", "", "Candidate model override")
	guardCmd.Flags().StringVar(&guardProvider, "provider", "", "Candidate provider override")
	guardCmd.Flags().Float64Var(&guardContextMult, "context-mult", 0, "Multiply input tokens")
	guardCmd.Flags().Float64Var(&guardOutputMult, "output-mult", 0, "Multiply output tokens")
	guardCmd.Flags().Int64Var(&guardRetriesDelta, "retries-delta", 0, "Add retries per call")
	guardCmd.Flags().Float64Var(&guardCallMult, "call-mult", 0, "Multiply call volume")
	guardCmd.Flags().Float64Var(&guardBudget, "budget", 0, "Monthly budget ceiling in USD")
	guardCmd.Flags().StringVar(&guardCandidate, "candidate", "", "Candidate usage log for diff mode")
	rootCmd.AddCommand(guardCmd)
}

func runGuard(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	rt, err := loadRateTable(cfg)
	if err != nil {
		return err
	}

	baseline, path, err := loadEvents(cfg)
	if err != nil {
		return err
	}

	in := pipeline.GuardInput{
		BaselineEvents: baseline,
		Candidate: pipeline.CandidateSpec{
			Provider:          guardProvider,
			Model:             guardModel,
			ContextMultiplier: guardContextMult,
			OutputMultiplier:  guardOutputMult,
			RetriesDelta:      guardRetriesDelta,
			CallMultiplier:    guardCallMult,
			BudgetMonthlyUSD:  guardBudget,
		},
	}
	if in.Candidate.BudgetMonthlyUSD == 0 && cfg.Budget.MonthlyUSD != nil {
		in.Candidate.BudgetMonthlyUSD = *cfg.Budget.MonthlyUSD
	}

	if guardCandidate != "" {
		candidate, err := source.ReadFile(guardCandidate)
		if err != nil {
			return fmt.Errorf("reading candidate log: %w", err)
		}
		// The flag, not the slice, selects diff mode: a zero-event
		// candidate log is still a valid diff input.
		in.CandidateEvents = candidate
		in.DiffMode = true
	}

	result := pipeline.Guard(rt, in)

	recordGuard(path, guardCandidate, result)

	printVerdict(result)
	os.Exit(result.ExitCode)
	return nil
}

// printVerdict colors the headline by exit code; the body stays plain so
// CI logs remain greppable.
func printVerdict(result model.GuardResult) {
	headline, rest, found := strings.Cut(result.Message, "\n")
	fmt.Println(cli.RenderVerdictLine(result.ExitCode, headline))
	if found {
		fmt.Println(rest)
	}
}

func recordGuard(baselinePath, candidatePath string, result model.GuardResult) {
	h, err := store.Open(store.DefaultPath())
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Warning: history unavailable: %s\n", err)
		}
		return
	}
	defer h.Close()

	if err := h.SaveGuard(baselinePath, candidatePath, result); err != nil && !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Warning: could not record run: %s\n", err)
	}
}
