// Package source reads usage logs (JSONL/CSV) and normalizes heterogeneous
// records into canonical usage events.
package source

import (
	"math"
	"strconv"
	"strings"

	"github.com/aiopt-dev/aiopt/internal/model"
)

// Field fallback orders, first defined wins. Two recording conventions feed
// the same pipeline: the scan input schema (input_tokens/retries) and the
// wrapper attempt-log schema (prompt_tokens/attempt/trace_id/cost_usd).
var (
	inputTokenSources  = []string{"input_tokens", "prompt_tokens"}
	outputTokenSources = []string{"output_tokens", "completion_tokens"}
	billedCostSources  = []string{"billed_cost", "cost_usd"}
)

// Normalize converts one raw record into a canonical usage event. Missing or
// malformed fields degrade to empty/zero defaults; this never fails.
func Normalize(rec map[string]any) model.UsageEvent {
	ev := model.UsageEvent{
		TS:           asString(rec["ts"]),
		Provider:     strings.ToLower(asString(rec["provider"])),
		Model:        asString(rec["model"]),
		InputTokens:  toInt(firstDefined(rec, inputTokenSources), 0),
		OutputTokens: toInt(firstDefined(rec, outputTokenSources), 0),
		FeatureTag:   featureTag(rec),
		Status:       asString(rec["status"]),
		TraceID:      asString(rec["trace_id"]),
		RequestID:    asString(rec["request_id"]),
		Endpoint:     asString(rec["endpoint"]),
	}

	if attempt, ok := rec["attempt"]; ok && attempt != nil {
		ev.Attempt = toInt(attempt, 0)
		ev.AttemptKnown = true
	}

	// retries <- retries, else derived from the attempt ordinal.
	if r, ok := rec["retries"]; ok && r != nil {
		ev.Retries = toInt(r, 0)
	} else if ev.AttemptKnown {
		ev.Retries = max64(ev.Attempt-1, 0)
	}
	if ev.Retries < 0 {
		ev.Retries = 0
	}
	if ev.InputTokens < 0 {
		ev.InputTokens = 0
	}
	if ev.OutputTokens < 0 {
		ev.OutputTokens = 0
	}

	// billed cost: absent or empty string means "not recorded", not zero.
	if v := firstDefined(rec, billedCostSources); v != nil {
		if s, isStr := v.(string); !isStr || strings.TrimSpace(s) != "" {
			cost := toFloat(v, 0)
			ev.BilledCost = &cost
		}
	}

	return ev
}

// featureTag resolves feature_tag -> meta.feature_tag -> endpoint -> "".
func featureTag(rec map[string]any) string {
	if v, ok := rec["feature_tag"]; ok && v != nil {
		return asString(v)
	}
	if meta, ok := rec["meta"].(map[string]any); ok {
		if v, ok := meta["feature_tag"]; ok && v != nil {
			return asString(v)
		}
	}
	if v, ok := rec["endpoint"]; ok && v != nil {
		return asString(v)
	}
	return ""
}

// firstDefined returns the first non-nil value among the given keys.
func firstDefined(rec map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// toFloat coerces a value to a finite number, falling back to def.
func toFloat(v any, def float64) float64 {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case int64:
		n = float64(x)
	case int:
		n = float64(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		n = parsed
	default:
		return def
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return def
	}
	return n
}

func toInt(v any, def int64) int64 {
	return int64(toFloat(v, float64(def)))
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
