package pipeline

import (
	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/rates"
)

var cheapRouteFeatureList = []string{"summarize", "classify", "translate"}

// BuildPolicy derives the declarative recommendation document from a batch.
// Purely derivative: nothing here feeds back into cost math. The caller sets
// GeneratedFrom.Input once the input path is known.
func BuildPolicy(rt *rates.Table, events []model.UsageEvent) model.Policy {
	rules := make([]model.PolicyRule, 0, len(rt.Providers)+1)

	// One cheap-routing rule per table provider that lists models, whether or
	// not the batch ever touched it.
	for _, provider := range rt.ProviderIDs() {
		cheapest, _, ok := rt.CheapestModel(provider)
		if !ok {
			continue
		}
		rules = append(rules, model.PolicyRule{
			Match: model.PolicyRuleMatch{
				Provider:     provider,
				FeatureTagIn: cheapRouteFeatureList,
			},
			Action: model.PolicyRuleAction{
				RecommendModel: cheapest,
				Reason:         "cheap-feature routing",
			},
		})
	}

	rules = append(rules, model.PolicyRule{
		Match:  model.PolicyRuleMatch{ModelUnknown: true},
		Action: model.PolicyRuleAction{Keep: true, Reason: "unknown model -> no policy applied"},
	})

	return model.Policy{
		Version:         1,
		DefaultProvider: defaultProvider(events),
		Rules:           rules,
		Budgets:         model.PolicyBudgets{Currency: rt.Currency, Notes: "budgets not enforced"},
		GeneratedFrom:   model.PolicyGeneratedFrom{RateTableVersion: rt.Version},
	}
}

// defaultProvider is the batch's most frequent provider; ties go to the
// provider seen first. Empty batches default to openai.
func defaultProvider(events []model.UsageEvent) string {
	counts := make(map[string]int)
	var order []string
	for _, ev := range events {
		if _, seen := counts[ev.Provider]; !seen {
			order = append(order, ev.Provider)
		}
		counts[ev.Provider]++
	}

	best := ""
	for _, p := range order {
		if best == "" || counts[p] > counts[best] {
			best = p
		}
	}
	if best == "" {
		return "openai"
	}
	return best
}
