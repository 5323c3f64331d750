package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/aiopt-dev/aiopt/internal/cli"
	"github.com/aiopt-dev/aiopt/internal/collect"
	"github.com/aiopt-dev/aiopt/internal/config"
	"github.com/aiopt-dev/aiopt/internal/pipeline"
	"github.com/aiopt-dev/aiopt/internal/source"
	"github.com/aiopt-dev/aiopt/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the aiopt environment",
	RunE:  runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(_ *cobra.Command, _ []string) error {
	cfg := loadConfigOrDefault()

	fmt.Println()
	fmt.Println(cli.RenderTitle("DOCTOR"))
	fmt.Println()

	if config.Exists() {
		checkOK("config: %s", config.ConfigPath())
	} else {
		checkWarn("config: not found (using defaults, run `aiopt setup`)")
	}

	rt, err := loadRateTable(cfg)
	if err != nil {
		checkFail("rate table: %s", err)
	} else {
		checkOK("rate table: version %s (%s)", rt.Version, rt.Date)
	}

	path := inputPath(cfg)
	events, readErr := source.ReadFile(path)
	switch {
	case readErr != nil && errors.Is(readErr, fs.ErrNotExist):
		checkWarn("usage log: %s not found (run `aiopt collect` or `aiopt init`)", path)
	case readErr != nil:
		checkFail("usage log: %s", readErr)
	default:
		mode := pipeline.DetectMode(events)
		checkOK("usage log: %s (%d events, %s mode)", path, len(events), mode)
	}

	dir := outDir(cfg)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		checkOK("output dir: %s", dir)
	} else {
		checkWarn("output dir: %s missing (created on first scan)", dir)
	}

	if root := collect.DefaultSessionsRoot(); dirExists(root) {
		checkOK("agent sessions: %s", root)
	} else {
		checkWarn("agent sessions: no %s (collect needs --dir)", collect.DefaultSessionsRoot())
	}

	if h, err := store.Open(store.DefaultPath()); err != nil {
		checkWarn("history: %s", err)
	} else {
		n, _ := h.ScanCount()
		h.Close()
		checkOK("history: %s (%d scans)", store.DefaultPath(), n)
	}

	if readErr == nil {
		printLastLines(path, 5)
	}

	fmt.Println()
	return nil
}

func checkOK(format string, args ...any) {
	fmt.Printf("  [ok]   %s\n", fmt.Sprintf(format, args...))
}

func checkWarn(format string, args ...any) {
	fmt.Printf("  [warn] %s\n", fmt.Sprintf(format, args...))
}

func checkFail(format string, args ...any) {
	fmt.Printf("  [fail] %s\n", fmt.Sprintf(format, args...))
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// printLastLines tails the usage log so odd records are easy to eyeball.
func printLastLines(path string, n int) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	var tail []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		tail = append(tail, line)
		if len(tail) > n {
			tail = tail[1:]
		}
	}

	if len(tail) == 0 {
		return
	}
	fmt.Println()
	fmt.Printf("  Last %d usage lines:\n", len(tail))
	for _, line := range tail {
		if len(line) > 120 {
			line = line[:117] + "..."
		}
		fmt.Printf("    %s\n", line)
	}
}
