package pipeline

import (
	"sort"
	"strings"

	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/rates"
)

// cheapRouteFeatures are the feature tags eligible for cheapest-model
// substitution savings.
var cheapRouteFeatures = map[string]bool{
	"summarize": true,
	"classify":  true,
	"translate": true,
}

// allocateSavings computes the three savings pools for a batch. Per event,
// the three lever potentials are allocated in a strict order — routing, then
// context, then retry waste — each capped by the budget remaining from the
// event's total contribution. The order plus cap is what keeps the levers
// from ever claiming more than an event actually cost.
func allocateSavings(rt *rates.Table, events []model.UsageEvent, costs []CostResult, mode model.Mode) (routing, context, retry float64) {
	contextTarget := contextTargets(events, mode)

	for i, ev := range events {
		cr := costs[i]
		mult := retryMultiplier(mode, ev)
		remaining := cr.Cost * mult

		r := routingPotential(rt, ev, cr) * mult
		if r > remaining {
			r = remaining
		}
		if r > 0 {
			routing += r
			remaining -= r
		}

		c := 0.0
		if contextTarget[i] {
			c = contextPotential(ev, cr) * mult
		}
		if c > remaining {
			c = remaining
		}
		if c > 0 {
			context += c
			remaining -= c
		}

		w := retryPotential(ev, cr, mode)
		if w > remaining {
			w = remaining
		}
		if w > 0 {
			retry += w
		}
	}
	return routing, context, retry
}

// routingPotential is the per-call saving from routing a cheap-feature event
// to its provider's cheapest listed model. Events priced off estimated rates
// contribute nothing: there is no credible savings claim against a rate that
// was itself a guess.
func routingPotential(rt *rates.Table, ev model.UsageEvent, cr CostResult) float64 {
	if !cheapRouteFeatures[strings.ToLower(ev.FeatureTag)] {
		return 0
	}
	if cr.Res.Kind == rates.KindEstimated {
		return 0
	}
	_, cheap, ok := rt.CheapestModel(ev.Provider)
	if !ok {
		return 0
	}
	current := float64(ev.InputTokens)/1e6*cr.Res.InputPerM + float64(ev.OutputTokens)/1e6*cr.Res.OutputPerM
	cheapest := float64(ev.InputTokens)/1e6*cheap.Input + float64(ev.OutputTokens)/1e6*cheap.Output
	if diff := current - cheapest; diff > 0 {
		return diff
	}
	return 0
}

// contextPotential assumes a 25% reduction of the event's input tokens.
// Unresolved providers are skipped; no speculation on unknown rates.
func contextPotential(ev model.UsageEvent, cr CostResult) float64 {
	if !cr.Res.ProviderKnown {
		return 0
	}
	return 0.25 * float64(ev.InputTokens) / 1e6 * cr.Res.InputPerM
}

// retryPotential is the waste attributable to retries: in attempt-log mode a
// retried attempt (attempt >= 2) is pure waste; in legacy mode every counted
// retry duplicates the base cost.
func retryPotential(ev model.UsageEvent, cr CostResult, mode model.Mode) float64 {
	if mode == model.ModeAttemptLog {
		if ev.AttemptKnown && ev.Attempt >= 2 {
			return cr.Cost
		}
		return 0
	}
	if ev.Retries > 0 {
		return cr.Cost * float64(ev.Retries)
	}
	return 0
}

// contextTargets marks the events eligible for the context lever: the top
// 20% by input tokens, k = max(1, floor(0.2*eligible)). In attempt-log mode
// only first attempts are ranked, so a retried call's inflated tokens are
// not counted twice.
func contextTargets(events []model.UsageEvent, mode model.Mode) map[int]bool {
	var eligible []int
	for i, ev := range events {
		if mode == model.ModeAttemptLog && !(ev.AttemptKnown && ev.Attempt == 1) {
			continue
		}
		eligible = append(eligible, i)
	}

	selected := make(map[int]bool)
	if len(eligible) == 0 {
		return selected
	}

	sort.SliceStable(eligible, func(a, b int) bool {
		return events[eligible[a]].InputTokens > events[eligible[b]].InputTokens
	})

	k := len(eligible) / 5
	if k < 1 {
		k = 1
	}
	for _, idx := range eligible[:k] {
		selected[idx] = true
	}
	return selected
}
