// Package pipeline is the cost-analysis core: cost attribution, batch
// analysis, savings allocation, policy derivation, and the regression guard.
// Everything here is a pure function of (rate table, events); no function
// mutates its inputs.
package pipeline

import (
	"math"

	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/rates"
)

// CostResult is the attributed cost of one event.
type CostResult struct {
	// Cost in USD. When the event carried a billed cost, that value wins.
	Cost float64
	// Kind tells how Cost was derived: billed_cost, official, or estimated.
	Kind rates.Kind
	// Res is the table resolution for the event's provider/model pair,
	// computed regardless of any billed-cost override so savings levers can
	// reason about rate quality.
	Res rates.Resolution
}

// CostOfEvent attributes a dollar cost to one event. Resolution order:
// explicit billed cost, self-hosted free, known rate, generic estimate.
// The analysis engine and the guard both price through here; there is no
// second code path with divergent rounding.
func CostOfEvent(rt *rates.Table, ev model.UsageEvent) CostResult {
	res := rt.Resolve(ev.Provider, ev.Model)

	if ev.BilledCost != nil && !math.IsNaN(*ev.BilledCost) && !math.IsInf(*ev.BilledCost, 0) {
		return CostResult{Cost: *ev.BilledCost, Kind: rates.KindBilledCost, Res: res}
	}

	cost := float64(ev.InputTokens)/1e6*res.InputPerM + float64(ev.OutputTokens)/1e6*res.OutputPerM
	return CostResult{Cost: cost, Kind: res.Kind, Res: res}
}

// round2 rounds a dollar figure to cents, half away from zero.
func round2(n float64) float64 {
	return math.Round(n*100) / 100
}
