package pipeline

import (
	"fmt"
	"sort"

	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/rates"
)

// Result bundles the outputs of one analysis run.
type Result struct {
	Analysis model.Analysis
	Savings  model.Savings
	Policy   model.Policy
	Mode     model.Mode
}

// group accumulates {cost, events} per key, remembering first-seen order so
// ties in the final sort stay in insertion order.
type group struct {
	keys []string
	m    map[string]*model.BreakdownRow
}

func newGroup() *group {
	return &group{m: make(map[string]*model.BreakdownRow)}
}

func (g *group) add(key string, cost float64) {
	row, ok := g.m[key]
	if !ok {
		row = &model.BreakdownRow{Key: key}
		g.m[key] = row
		g.keys = append(g.keys, key)
	}
	row.Cost += cost
	row.Events++
}

// top returns the n highest-cost rows, cost descending, first-seen order on
// ties (stable sort over insertion order), dollar figures rounded to cents.
func (g *group) top(n int) []model.BreakdownRow {
	rows := make([]model.BreakdownRow, 0, len(g.keys))
	for _, k := range g.keys {
		rows = append(rows, *g.m[k])
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Cost > rows[j].Cost })
	if len(rows) > n {
		rows = rows[:n]
	}
	for i := range rows {
		rows[i].Cost = round2(rows[i].Cost)
	}
	return rows
}

// Analyze runs the full engine over one batch: mode detection, per-event cost
// attribution, total and breakdown accumulation, unknown-model tracking,
// savings allocation, and policy derivation. Deterministic for identical
// inputs; the input slice is never mutated.
func Analyze(rt *rates.Table, events []model.UsageEvent) Result {
	mode := DetectMode(events)

	byModel := newGroup()
	byFeature := newGroup()

	costs := make([]CostResult, len(events))
	var unknown []model.UnknownModel
	seenUnknown := make(map[string]bool)

	total := 0.0
	for i, ev := range events {
		cr := CostOfEvent(rt, ev)
		costs[i] = cr

		// The total is the cash outlay; breakdowns stay un-multiplied so
		// they read as cost per distinct call attempt.
		total += cr.Cost * retryMultiplier(mode, ev)
		byModel.add(ev.ModelKey(), cr.Cost)
		byFeature.add(ev.FeatureKey(), cr.Cost)

		var reason string
		switch {
		case !cr.Res.ProviderKnown:
			reason = "unknown provider (estimated)"
		case cr.Res.Kind == rates.KindEstimated:
			reason = "unknown model (estimated)"
		default:
			continue
		}
		key := ev.Provider + ":" + ev.Model + ":" + reason
		if !seenUnknown[key] {
			seenUnknown[key] = true
			unknown = append(unknown, model.UnknownModel{Provider: ev.Provider, Model: ev.Model, Reason: reason})
		}
	}

	routing, context, retry := allocateSavings(rt, events, costs, mode)
	estTotal := routing + context + retry
	guarded := estTotal
	if guarded > total {
		guarded = total
	}

	analysis := model.Analysis{
		TotalCost:        round2(total),
		ByModelTop:       byModel.top(10),
		ByFeatureTop:     byFeature.top(10),
		UnknownModels:    unknown,
		RateTableVersion: rt.Version,
		RateTableDate:    rt.Date,
	}

	savings := model.Savings{
		EstimatedSavingsTotal: round2(guarded),
		RoutingSavings:        round2(routing),
		ContextSavings:        round2(context),
		RetryWaste:            round2(retry),
		Notes: [3]string{
			fmt.Sprintf("a) model routing savings (est): $%.2f", round2(routing)),
			fmt.Sprintf("b) context trim savings (est): $%.2f (25%% cut on top-20%% inputs)", round2(context)),
			fmt.Sprintf("c) retry/error waste: $%.2f (retries based)", round2(retry)),
		},
	}

	return Result{
		Analysis: analysis,
		Savings:  savings,
		Policy:   BuildPolicy(rt, events),
		Mode:     mode,
	}
}
