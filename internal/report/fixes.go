package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aiopt-dev/aiopt/internal/model"
)

// Fix is one ranked remediation suggestion.
type Fix struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	ImpactUSD    float64  `json:"impact_usd"`
	Why          string   `json:"why"`
	WhatToChange []string `json:"what_to_change"`
	Status       string   `json:"status"`
}

const (
	StatusAction  = "action"
	StatusNoIssue = "no-issue"
)

const impactEps = 0.0001

// BuildTopFixes derives the remediation list from a scan, ranked by
// estimated dollar impact, id ascending on ties.
func BuildTopFixes(a model.Analysis, s model.Savings) []Fix {
	topFeature := "(unknown)"
	if len(a.ByFeatureTop) > 0 {
		topFeature = a.ByFeatureTop[0].Key
	}

	fixes := []Fix{
		{
			ID:        "fix-retry-tuning",
			Title:     "Retry tuning",
			ImpactUSD: s.RetryWaste,
			Why:       fmt.Sprintf("Retry waste is estimated at $%.2f.", s.RetryWaste),
			WhatToChange: []string{
				"aiopt/policies/retry.json: lower max_attempts or adjust backoff_ms",
				"Ensure idempotency keys are stable per trace_id",
				"Log error_code to identify retryable classes",
			},
		},
		{
			ID:        "fix-output-cap",
			Title:     "Output cap",
			ImpactUSD: s.ContextSavings,
			Why:       fmt.Sprintf("Context savings estimate: $%.2f. Output caps prevent runaway completions.", s.ContextSavings),
			WhatToChange: []string{
				"aiopt/policies/output.json: set max_output_tokens_default",
				"aiopt/policies/output.json: set per_feature caps (summarize/classify/translate)",
			},
		},
		{
			ID:        "fix-routing",
			Title:     "Routing rule",
			ImpactUSD: s.RoutingSavings,
			Why:       fmt.Sprintf("Routing savings estimate: $%.2f.", s.RoutingSavings),
			WhatToChange: []string{
				"aiopt/policies/routing.json: route summarize/classify/translate to cheap tier",
				"Consider adding feature_tag_in for top feature: " + topFeature,
			},
		},
	}

	for i := range fixes {
		if fixes[i].ImpactUSD > impactEps {
			fixes[i].Status = StatusAction
		} else {
			fixes[i].Status = StatusNoIssue
		}
	}

	sort.SliceStable(fixes, func(i, j int) bool {
		if fixes[i].ImpactUSD != fixes[j].ImpactUSD {
			return fixes[i].ImpactUSD > fixes[j].ImpactUSD
		}
		return fixes[i].ID < fixes[j].ID
	})
	return fixes
}

// WritePatches writes the patches directory: a README listing the fixes and
// one stub policy file per lever for human review.
func WritePatches(outDir string, fixes []Fix) error {
	patchesDir := filepath.Join(outDir, "patches")
	if err := os.MkdirAll(patchesDir, 0o755); err != nil {
		return fmt.Errorf("creating patches dir: %w", err)
	}

	var readme strings.Builder
	readme.WriteString("# aiopt patches\n\nSuggested changes you can apply locally.\n\n## Top fixes\n")
	for i, f := range fixes {
		fmt.Fprintf(&readme, "%d. %s: %s\n", i+1, f.Title, f.Why)
	}
	readme.WriteString("\nFiles are stubs (human review required).\n")
	if err := os.WriteFile(filepath.Join(patchesDir, "README.md"), []byte(readme.String()), 0o644); err != nil {
		return fmt.Errorf("writing patches README: %w", err)
	}

	stubs := map[string]string{
		"policies.updated.routing.json": "routing",
		"policies.updated.retry.json":   "retry",
		"policies.updated.output.json":  "output",
	}
	for name, lever := range stubs {
		var matched []Fix
		for _, f := range fixes {
			if strings.Contains(f.ID, lever) {
				matched = append(matched, f)
			}
		}
		stub := struct {
			Note  string `json:"note"`
			Fixes []Fix  `json:"fixes"`
		}{
			Note:  fmt.Sprintf("apply changes to aiopt/policies/%s.json", lever),
			Fixes: matched,
		}
		data, err := json.MarshalIndent(stub, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(patchesDir, name), append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
