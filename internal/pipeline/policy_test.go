package pipeline

import (
	"testing"

	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/rates"
)

func TestBuildPolicyRules(t *testing.T) {
	rt := &rates.DefaultTable
	p := BuildPolicy(rt, nil)

	if p.Version != 1 {
		t.Errorf("version = %d, want 1", p.Version)
	}

	// One routing rule per provider, ascending by id, then the catch-all.
	wantRecommend := map[string]string{
		"anthropic": "claude-haiku-3-5",
		"google":    "gemini-2.5-flash",
		"mistral":   "mistral-small",
		"openai":    "gpt-4o-mini",
	}
	if len(p.Rules) != len(wantRecommend)+1 {
		t.Fatalf("rules = %d, want %d", len(p.Rules), len(wantRecommend)+1)
	}

	prev := ""
	for _, r := range p.Rules[:len(p.Rules)-1] {
		if r.Match.Provider <= prev {
			t.Errorf("providers not ascending: %q after %q", r.Match.Provider, prev)
		}
		prev = r.Match.Provider
		if want := wantRecommend[r.Match.Provider]; r.Action.RecommendModel != want {
			t.Errorf("%s recommends %q, want %q", r.Match.Provider, r.Action.RecommendModel, want)
		}
		if len(r.Match.FeatureTagIn) != 3 {
			t.Errorf("%s feature tags = %v", r.Match.Provider, r.Match.FeatureTagIn)
		}
	}

	last := p.Rules[len(p.Rules)-1]
	if !last.Match.ModelUnknown || !last.Action.Keep {
		t.Errorf("catch-all rule = %+v, want model_unknown keep", last)
	}
}

func TestBuildPolicyMetadata(t *testing.T) {
	rt := &rates.DefaultTable
	p := BuildPolicy(rt, nil)

	if p.Budgets.Currency != "USD" {
		t.Errorf("currency = %q, want USD", p.Budgets.Currency)
	}
	if p.GeneratedFrom.RateTableVersion != rt.Version {
		t.Errorf("rate table version = %q, want %q", p.GeneratedFrom.RateTableVersion, rt.Version)
	}
}

func TestDefaultProvider(t *testing.T) {
	tests := []struct {
		name   string
		events []model.UsageEvent
		want   string
	}{
		{"empty batch falls back to openai", nil, "openai"},
		{
			"most frequent wins",
			[]model.UsageEvent{
				{Provider: "anthropic"}, {Provider: "openai"}, {Provider: "anthropic"},
			},
			"anthropic",
		},
		{
			"tie goes to first seen",
			[]model.UsageEvent{
				{Provider: "mistral"}, {Provider: "google"},
				{Provider: "google"}, {Provider: "mistral"},
			},
			"mistral",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := defaultProvider(tt.events); got != tt.want {
				t.Errorf("defaultProvider = %q, want %q", got, tt.want)
			}
		})
	}
}
