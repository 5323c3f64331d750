package pipeline

import (
	"fmt"
	"testing"

	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/rates"
)

// benchEvents builds a synthetic batch spread across providers, models,
// and feature tags, with a slice of unknown models mixed in.
func benchEvents(n int) []model.UsageEvent {
	providers := []string{"openai", "anthropic", "google", "acme"}
	models := []string{"gpt-4o", "claude-sonnet-4", "gemini-2.5-pro", "frontier-xl"}
	features := []string{"chat", "summarize", "extract", "classify", ""}

	events := make([]model.UsageEvent, n)
	for i := range events {
		events[i] = model.UsageEvent{
			TS:           fmt.Sprintf("2026-01-%02dT%02d:00:00Z", 1+i%28, i%24),
			Provider:     providers[i%len(providers)],
			Model:        models[i%len(models)],
			InputTokens:  int64(500 + i%4000),
			OutputTokens: int64(100 + i%900),
			Retries:      int64(i % 3),
			FeatureTag:   features[i%len(features)],
		}
	}
	return events
}

func BenchmarkAnalyze(b *testing.B) {
	rt := rates.DefaultTable.Copy()
	events := benchEvents(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := Analyze(rt, events)
		_ = result
	}
}

func BenchmarkGuardTransform(b *testing.B) {
	rt := rates.DefaultTable.Copy()
	events := benchEvents(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := Guard(rt, GuardInput{
			BaselineEvents: events,
			Candidate:      CandidateSpec{Model: "gpt-4o", ContextMultiplier: 2},
		})
		_ = result
	}
}

func BenchmarkGuardDiff(b *testing.B) {
	rt := rates.DefaultTable.Copy()
	baseline := benchEvents(10000)
	candidate := benchEvents(10000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		result := Guard(rt, GuardInput{
			BaselineEvents:  baseline,
			CandidateEvents: candidate,
		})
		_ = result
	}
}
