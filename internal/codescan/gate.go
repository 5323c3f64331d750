package codescan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GateResult is the outcome of one gate evaluation over a SARIF artifact.
type GateResult struct {
	Violations int
	Top3       []GateLocation
}

// GateLocation is one violating file:line.
type GateLocation struct {
	File string
	Line int
}

// RunGate reads outDir/aiopt.sarif and counts warning and error results.
// A missing or unparseable artifact gates clean: nothing to enforce.
func RunGate(outDir, cwd string) GateResult {
	data, err := os.ReadFile(filepath.Join(outDir, SARIFFile))
	if err != nil {
		return GateResult{}
	}

	var log sarifLog
	if err := json.Unmarshal(data, &log); err != nil {
		return GateResult{}
	}
	if len(log.Runs) == 0 {
		return GateResult{}
	}

	var result GateResult
	for _, r := range log.Runs[0].Results {
		level := strings.ToLower(r.Level)
		if level != LevelWarning && level != LevelError {
			continue
		}
		result.Violations++
		if len(result.Top3) >= 3 {
			continue
		}
		loc := GateLocation{File: "", Line: 1}
		if len(r.Locations) > 0 {
			pl := r.Locations[0].PhysicalLocation
			loc.File = relativize(fromURI(pl.ArtifactLocation.URI), cwd)
			if pl.Region.StartLine > 0 {
				loc.Line = pl.Region.StartLine
			}
		}
		result.Top3 = append(result.Top3, loc)
	}
	return result
}

// FormatGate renders the gate verdict for stdout, at most ten lines.
// exitCode is 1 when violations exist, 0 otherwise.
func FormatGate(r GateResult, outDir string) (text string, exitCode int) {
	if r.Violations == 0 {
		return fmt.Sprintf("OK: no policy violations\nArtifacts: %s",
			filepath.Join(outDir, SARIFFile)), 0
	}

	lines := []string{
		fmt.Sprintf("FAIL: policy violations=%d", r.Violations),
		"Top3:",
	}
	for _, loc := range r.Top3 {
		lines = append(lines, fmt.Sprintf("- %s:%d", loc.File, loc.Line))
	}
	lines = append(lines, fmt.Sprintf("See artifacts: %s | %s",
		filepath.Join(outDir, SARIFFile), filepath.Join(outDir, "patches")))
	if len(lines) > 10 {
		lines = lines[:10]
	}
	return strings.Join(lines, "\n"), 1
}

func fromURI(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

func relativize(path, cwd string) string {
	if path == "" || cwd == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(cwd, path)
	if err != nil {
		return path
	}
	return rel
}
