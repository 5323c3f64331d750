package codescan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SARIFFile is the artifact name written under the output directory.
const SARIFFile = "aiopt.sarif"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string     `json:"id"`
	ShortDescription sarifText  `json:"shortDescription"`
	Help             *sarifText `json:"help,omitempty"`
}

type sarifText struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifText       `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// BuildSARIF assembles a minimal SARIF 2.1.0 log that GitHub code scanning
// can ingest. Rule metadata stays tiny; details live in the report artifacts.
func BuildSARIF(toolName, toolVersion string, findings []Finding) ([]byte, error) {
	var rules []sarifRule
	seen := make(map[string]bool)
	for _, f := range findings {
		if seen[f.RuleID] {
			continue
		}
		seen[f.RuleID] = true
		rule := sarifRule{ID: f.RuleID, ShortDescription: sarifText{Text: f.RuleID}}
		if f.Help != "" {
			rule.Help = &sarifText{Text: f.Help}
		}
		rules = append(rules, rule)
	}

	results := make([]sarifResult, 0, len(findings))
	for _, f := range findings {
		line := f.Line
		if line < 1 {
			line = 1
		}
		results = append(results, sarifResult{
			RuleID:  f.RuleID,
			Level:   f.Level,
			Message: sarifText{Text: f.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: toURI(f.File)},
					Region:           sarifRegion{StartLine: line},
				},
			}},
		})
	}

	log := sarifLog{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           toolName,
				Version:        toolVersion,
				InformationURI: "https://github.com/aiopt-dev/aiopt",
				Rules:          rules,
			}},
			Results: results,
		}},
	}
	return json.MarshalIndent(log, "", "  ")
}

// WriteSARIF writes the SARIF artifact under outDir.
func WriteSARIF(outDir, toolName, toolVersion string, findings []Finding) error {
	data, err := BuildSARIF(toolName, toolVersion, findings)
	if err != nil {
		return fmt.Errorf("encoding sarif: %w", err)
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, SARIFFile), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing sarif: %w", err)
	}
	return nil
}

// toURI prefers repo-relative URIs so code scanning maps results reliably.
func toURI(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	cwd, err := os.Getwd()
	if err == nil {
		if rel, err := filepath.Rel(cwd, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return "file://" + filepath.ToSlash(abs)
}
