package source

import (
	"encoding/json"
	"math"
	"testing"
)

func TestNormalizeFieldFallbacks(t *testing.T) {
	tests := []struct {
		name string
		rec  map[string]any
		chk  func(t *testing.T, ev eventView)
	}{
		{
			"canonical field names",
			map[string]any{
				"ts": "2026-01-01T00:00:00Z", "provider": "OpenAI", "model": "gpt-4o",
				"input_tokens": float64(100), "output_tokens": float64(50),
				"feature_tag": "chat", "retries": float64(2), "status": "ok",
			},
			func(t *testing.T, ev eventView) {
				if ev.Provider != "openai" {
					t.Errorf("provider = %q, want lowercased openai", ev.Provider)
				}
				if ev.InputTokens != 100 || ev.OutputTokens != 50 {
					t.Errorf("tokens = %d/%d, want 100/50", ev.InputTokens, ev.OutputTokens)
				}
				if ev.Retries != 2 || ev.FeatureTag != "chat" {
					t.Errorf("retries = %d tag = %q", ev.Retries, ev.FeatureTag)
				}
			},
		},
		{
			"wrapper schema aliases",
			map[string]any{
				"provider": "openai", "model": "gpt-4o",
				"prompt_tokens": float64(70), "completion_tokens": float64(30),
				"cost_usd": 0.12, "trace_id": "t1", "attempt": float64(2),
			},
			func(t *testing.T, ev eventView) {
				if ev.InputTokens != 70 || ev.OutputTokens != 30 {
					t.Errorf("tokens = %d/%d, want 70/30", ev.InputTokens, ev.OutputTokens)
				}
				if ev.BilledCost == nil || *ev.BilledCost != 0.12 {
					t.Errorf("billed = %v, want 0.12", ev.BilledCost)
				}
				if !ev.AttemptKnown || ev.Attempt != 2 {
					t.Errorf("attempt = %d known=%v, want 2", ev.Attempt, ev.AttemptKnown)
				}
				// Derived from the attempt ordinal when no retries field.
				if ev.Retries != 1 {
					t.Errorf("retries = %d, want 1", ev.Retries)
				}
			},
		},
		{
			"canonical names win over aliases",
			map[string]any{
				"provider": "openai", "model": "gpt-4o",
				"input_tokens": float64(100), "prompt_tokens": float64(999),
				"billed_cost": 1.0, "cost_usd": 9.0,
			},
			func(t *testing.T, ev eventView) {
				if ev.InputTokens != 100 {
					t.Errorf("input = %d, want 100", ev.InputTokens)
				}
				if ev.BilledCost == nil || *ev.BilledCost != 1.0 {
					t.Errorf("billed = %v, want 1.0", ev.BilledCost)
				}
			},
		},
		{
			"feature tag falls back to meta then endpoint",
			map[string]any{
				"provider": "openai",
				"meta":     map[string]any{"feature_tag": "extract"},
				"endpoint": "/v1/chat",
			},
			func(t *testing.T, ev eventView) {
				if ev.FeatureTag != "extract" {
					t.Errorf("tag = %q, want extract (meta wins over endpoint)", ev.FeatureTag)
				}
			},
		},
		{
			"endpoint stands in for a missing tag",
			map[string]any{"provider": "openai", "endpoint": "/v1/chat"},
			func(t *testing.T, ev eventView) {
				if ev.FeatureTag != "/v1/chat" {
					t.Errorf("tag = %q, want /v1/chat", ev.FeatureTag)
				}
			},
		},
		{
			"empty-string cost means not recorded",
			map[string]any{"provider": "openai", "billed_cost": "  "},
			func(t *testing.T, ev eventView) {
				if ev.BilledCost != nil {
					t.Errorf("billed = %v, want nil", *ev.BilledCost)
				}
			},
		},
		{
			"zero cost is a real recorded value",
			map[string]any{"provider": "openai", "billed_cost": float64(0)},
			func(t *testing.T, ev eventView) {
				if ev.BilledCost == nil || *ev.BilledCost != 0 {
					t.Errorf("billed = %v, want recorded 0", ev.BilledCost)
				}
			},
		},
		{
			"negative and malformed numbers degrade to zero",
			map[string]any{
				"provider": "openai", "input_tokens": float64(-5),
				"output_tokens": "junk", "retries": float64(-1),
			},
			func(t *testing.T, ev eventView) {
				if ev.InputTokens != 0 || ev.OutputTokens != 0 || ev.Retries != 0 {
					t.Errorf("tokens = %d/%d retries = %d, want all 0", ev.InputTokens, ev.OutputTokens, ev.Retries)
				}
			},
		},
		{
			"numeric strings are coerced",
			map[string]any{"provider": "openai", "input_tokens": "1500", "retries": "2"},
			func(t *testing.T, ev eventView) {
				if ev.InputTokens != 1500 || ev.Retries != 2 {
					t.Errorf("input = %d retries = %d, want 1500/2", ev.InputTokens, ev.Retries)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := Normalize(tt.rec)
			tt.chk(t, eventView{
				Provider: ev.Provider, FeatureTag: ev.FeatureTag,
				InputTokens: ev.InputTokens, OutputTokens: ev.OutputTokens,
				Retries: ev.Retries, BilledCost: ev.BilledCost,
				Attempt: ev.Attempt, AttemptKnown: ev.AttemptKnown,
			})
		})
	}
}

// eventView trims the asserted surface so each case names only what it
// checks.
type eventView struct {
	Provider     string
	FeatureTag   string
	InputTokens  int64
	OutputTokens int64
	Retries      int64
	BilledCost   *float64
	Attempt      int64
	AttemptKnown bool
}

func TestNormalizeEmptyRecord(t *testing.T) {
	ev := Normalize(map[string]any{})
	if ev.Provider != "" || ev.Model != "" || ev.InputTokens != 0 {
		t.Errorf("empty record = %+v, want zero event", ev)
	}
	if ev.BilledCost != nil {
		t.Errorf("billed = %v, want nil", *ev.BilledCost)
	}
	if ev.AttemptKnown {
		t.Error("attempt should be unknown")
	}
}

func FuzzNormalize(f *testing.F) {
	f.Add(`{"provider":"openai","model":"gpt-4o","input_tokens":100}`)
	f.Add(`{"provider":"OPENAI","billed_cost":"","retries":-3}`)
	f.Add(`{"attempt":2,"trace_id":"t","prompt_tokens":1e300}`)
	f.Add(`{"meta":{"feature_tag":null},"endpoint":7}`)
	f.Add(`{"input_tokens":"NaN","cost_usd":"Inf"}`)

	f.Fuzz(func(t *testing.T, line string) {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Skip()
		}
		ev := Normalize(rec)
		if ev.InputTokens < 0 || ev.OutputTokens < 0 || ev.Retries < 0 {
			t.Errorf("negative counts from %q: %+v", line, ev)
		}
		if ev.BilledCost != nil && (math.IsNaN(*ev.BilledCost) || math.IsInf(*ev.BilledCost, 0)) {
			t.Errorf("non-finite billed cost from %q", line)
		}
	})
}
