package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/cli"
	"github.com/aiopt-dev/aiopt/internal/collect"
)

var collectDir string

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Harvest agent session logs into a usage log",
	Long: `Scan agent session JSONL logs (default ~/.openclaw/agents), convert
message usage records to usage events, de-duplicate, sort by timestamp,
and write them to the configured usage log.`,
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectDir, "dir", "", "Agents directory to harvest (default ~/.openclaw/agents)")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	root := collectDir
	if root == "" {
		root = collect.DefaultSessionsRoot()
	}
	outPath := inputPath(cfg)

	result, err := collect.Run(root, outPath)
	if err != nil {
		return fmt.Errorf("collecting usage: %w", err)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("COLLECT"))
	fmt.Println()
	for _, src := range result.Sources {
		fmt.Printf("  %-24s %4d files  %6d events\n", src.Name, src.Files, src.Events)
	}
	if len(result.Sources) == 0 {
		fmt.Printf("  No session logs found under %s\n", root)
	}
	fmt.Println()
	fmt.Printf("  Wrote %s events to %s\n\n",
		cli.FormatNumber(int64(result.EventsWritten)), result.OutPath)
	return nil
}
