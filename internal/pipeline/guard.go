package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/rates"
)

// CandidateSpec describes the hypothetical change to evaluate in transform
// mode. Zero-valued multipliers mean "unchanged" (treated as 1); a zero
// budget means no budget ceiling.
type CandidateSpec struct {
	Provider          string
	Model             string
	ContextMultiplier float64
	OutputMultiplier  float64
	RetriesDelta      int64
	CallMultiplier    float64
	BudgetMonthlyUSD  float64
}

// GuardInput is one guard invocation. DiffMode compares CandidateEvents
// verbatim against the baseline; a supplied candidate log may legitimately
// be empty, so the mode is a flag, not a nil check. Without DiffMode the
// candidate is synthesized from the baseline via CandidateSpec (transform
// mode). A non-nil CandidateEvents implies DiffMode for callers that skip
// the flag.
type GuardInput struct {
	BaselineEvents  []model.UsageEvent
	CandidateEvents []model.UsageEvent
	DiffMode        bool
	Candidate       CandidateSpec
}

// Guard compares a baseline usage profile against a candidate and classifies
// the monthly cost impact. Pure function: two terminal outcomes per
// invocation, no state across calls.
func Guard(rt *rates.Table, in GuardInput) model.GuardResult {
	if len(in.BaselineEvents) == 0 {
		return emptyBaselineVerdict()
	}

	// Both sides are priced from the rate table, never from recorded costs,
	// so a stale billed_cost can't tilt the comparison.
	baseline := clearBilled(in.BaselineEvents)
	base := Analyze(rt, baseline)

	diffMode := in.DiffMode || in.CandidateEvents != nil
	var candidate []model.UsageEvent
	if diffMode {
		candidate = clearBilled(in.CandidateEvents)
	} else {
		candidate = applyCandidate(baseline, in.Candidate)
	}
	cand := Analyze(rt, candidate)

	baseCost := base.Analysis.TotalCost
	candCost := cand.Analysis.TotalCost

	callMult := in.Candidate.CallMultiplier
	if callMult > 0 && callMult != 1 {
		candCost *= callMult
	}

	// An attempt-log baseline already records each retry as its own line, so
	// bumping the retries field on a synthesized candidate changes nothing.
	// Price the extra attempts empirically instead.
	if !diffMode && base.Mode == model.ModeAttemptLog && in.Candidate.RetriesDelta > 0 {
		candCost += retryUnitCost(rt, baseline) * float64(in.Candidate.RetriesDelta)
	}

	delta := candCost - baseCost

	confidence, reasons := confidenceFromChange(diffMode, in.Candidate)
	flags := dataQualityFlags(rt, baseline)
	confidence = degradeConfidence(confidence, len(flags))
	reasons = append(reasons, flags...)

	days := observedDays(baseline)
	monthly := math.Max(0, delta) * 30 / days

	exitCode := 0
	headline := "OK: no cost accident risk detected"
	switch {
	case monthly >= 100:
		exitCode = 3
		headline = "FAIL: high risk of LLM cost accident"
	case monthly >= 10:
		exitCode = 2
		headline = "WARN: possible LLM cost accident"
	}

	budgetLine := ""
	candMonthly := candCost * 30 / days
	if in.Candidate.BudgetMonthlyUSD > 0 && candMonthly > in.Candidate.BudgetMonthlyUSD {
		exitCode = 3
		headline = "FAIL: candidate exceeds monthly budget"
		budgetLine = fmt.Sprintf("Budget: candidate monthly $%.2f exceeds ceiling $%.2f",
			round2(candMonthly), in.Candidate.BudgetMonthlyUSD)
	}

	var causes []string
	if diffMode {
		causes = diffCauses(base.Analysis, cand.Analysis)
	} else {
		causes = knobCauses(in.Candidate)
	}

	lines := []string{
		headline,
		fmt.Sprintf("Summary: baseline=$%.2f → candidate=$%.2f (Δ=$%.2f)", round2(baseCost), round2(candCost), round2(delta)),
	}
	if callMult > 0 && callMult != 1 {
		lines = append(lines, fmt.Sprintf("Call volume: ×%g", callMult))
	}
	lines = append(lines,
		fmt.Sprintf("Impact (monthly est): +$%.2f", round2(monthly)),
		fmt.Sprintf("Accident risk: %s", riskFromMonthly(monthly)),
		fmt.Sprintf("Confidence: %s (%s)", confidence, reasonText(reasons)),
	)
	if budgetLine != "" {
		lines = append(lines, budgetLine)
	}
	if len(causes) > 0 {
		lines = append(lines, "Top causes:")
		for _, c := range causes {
			lines = append(lines, "- "+c)
		}
	}
	if diffMode {
		lines = append(lines, tokenDeltaLine(baseline, candidate))
	}
	lines = append(lines, "Recommendation: review model/provider/retry/context changes before deploy.")

	return model.GuardResult{
		ExitCode:      exitCode,
		Message:       strings.Join(lines, "\n"),
		BaselineCost:  round2(baseCost),
		CandidateCost: round2(candCost),
		Delta:         round2(delta),
		MonthlyDelta:  round2(monthly),
		Risk:          riskFromMonthly(monthly),
		Confidence:    confidence,
		Reasons:       reasons,
		TopCauses:     causes,
		Mode:          base.Mode,
	}
}

// emptyBaselineVerdict is the fixed failure response for a missing baseline.
// A hard precondition: guard always yields an actionable verdict, and "we
// know nothing" is maximum accident risk.
func emptyBaselineVerdict() model.GuardResult {
	msg := strings.Join([]string{
		"FAIL: baseline usage is empty (need a collected usage log)",
		"Impact (monthly est): +$0.00 (insufficient baseline)",
		fmt.Sprintf("Accident risk: %s", riskFromMonthly(100)),
		"Confidence: Low (baseline empty)",
		"Recommendation: collect baseline usage before running guard.",
	}, "\n")
	return model.GuardResult{
		ExitCode:   3,
		Message:    msg,
		Risk:       model.RiskHigh,
		Confidence: model.RiskLow,
		Reasons:    []string{"baseline empty"},
	}
}

func clearBilled(events []model.UsageEvent) []model.UsageEvent {
	out := make([]model.UsageEvent, len(events))
	for i, ev := range events {
		c := ev.Clone()
		c.BilledCost = nil
		out[i] = c
	}
	return out
}

// applyCandidate synthesizes the candidate event list: every baseline event
// cloned with the transform knobs applied. Token counts round to the nearest
// integer and floor at zero; billed costs stay cleared so the new
// provider/model is re-priced.
func applyCandidate(baseline []model.UsageEvent, spec CandidateSpec) []model.UsageEvent {
	ctxM := spec.ContextMultiplier
	if ctxM <= 0 {
		ctxM = 1
	}
	outM := spec.OutputMultiplier
	if outM <= 0 {
		outM = 1
	}

	out := make([]model.UsageEvent, len(baseline))
	for i, ev := range baseline {
		c := ev.Clone()
		if spec.Provider != "" {
			c.Provider = strings.ToLower(spec.Provider)
		}
		if spec.Model != "" {
			c.Model = spec.Model
		}
		c.InputTokens = scaleTokens(ev.InputTokens, ctxM)
		c.OutputTokens = scaleTokens(ev.OutputTokens, outM)
		c.Retries = ev.Retries + spec.RetriesDelta
		if c.Retries < 0 {
			c.Retries = 0
		}
		c.BilledCost = nil
		out[i] = c
	}
	return out
}

func scaleTokens(n int64, mult float64) int64 {
	scaled := int64(math.Round(float64(n) * mult))
	if scaled < 0 {
		return 0
	}
	return scaled
}

// retryUnitCost is the mean attributed cost of a retried attempt in the
// baseline, falling back to the mean cost per event when the baseline has no
// attempt >= 2 lines.
func retryUnitCost(rt *rates.Table, baseline []model.UsageEvent) float64 {
	var retriedSum float64
	retried := 0
	var allSum float64
	for _, ev := range baseline {
		c := CostOfEvent(rt, ev).Cost
		allSum += c
		if ev.AttemptKnown && ev.Attempt >= 2 {
			retriedSum += c
			retried++
		}
	}
	if retried > 0 {
		return retriedSum / float64(retried)
	}
	if len(baseline) > 0 {
		return allSum / float64(len(baseline))
	}
	return 0
}

// confidenceFromChange maps the kind of change to a confidence level.
// Retry-count changes are the best-understood lever, model/provider swaps
// are middling, token-length guesses the weakest.
func confidenceFromChange(diffMode bool, spec CandidateSpec) (model.RiskLevel, []string) {
	if diffMode {
		return model.RiskHigh, []string{"actual logs diff"}
	}

	var reasons []string
	if spec.RetriesDelta != 0 {
		reasons = append(reasons, "retries change")
	}
	if spec.Model != "" {
		reasons = append(reasons, "model change")
	}
	if spec.Provider != "" {
		reasons = append(reasons, "provider change")
	}
	if spec.ContextMultiplier > 0 && spec.ContextMultiplier != 1 {
		reasons = append(reasons, "context length change")
	}
	if spec.OutputMultiplier > 0 && spec.OutputMultiplier != 1 {
		reasons = append(reasons, "output length change")
	}

	switch {
	case spec.RetriesDelta != 0:
		return model.RiskHigh, reasons
	case spec.Model != "" || spec.Provider != "":
		return model.RiskMedium, reasons
	case len(reasons) > 0:
		return model.RiskLow, reasons
	default:
		return model.RiskMedium, []string{"unknown change"}
	}
}

// dataQualityFlags inspects the baseline for signals that weaken any verdict:
// a short observation window, widespread missing feature tags, or widespread
// estimated pricing.
func dataQualityFlags(rt *rates.Table, baseline []model.UsageEvent) []string {
	var flags []string

	times := parseTimestamps(baseline)
	if len(times) < 2 || times[len(times)-1].Sub(times[0]) < 6*time.Hour {
		flags = append(flags, "short observation window")
	}

	missingTag := 0
	estimated := 0
	for _, ev := range baseline {
		if ev.FeatureTag == "" {
			missingTag++
		}
		if rt.Resolve(ev.Provider, ev.Model).Kind == rates.KindEstimated {
			estimated++
		}
	}
	n := float64(len(baseline))
	if float64(missingTag)/n > 0.2 {
		flags = append(flags, "many events missing feature_tag")
	}
	if float64(estimated)/n > 0.2 {
		flags = append(flags, "many events on estimated rates")
	}
	return flags
}

// degradeConfidence lowers a confidence level per the number of data-quality
// flags: one flag knocks it down a level, two or more force Low.
func degradeConfidence(level model.RiskLevel, flagCount int) model.RiskLevel {
	switch {
	case flagCount == 0:
		return level
	case flagCount == 1:
		if level == model.RiskHigh {
			return model.RiskMedium
		}
		return model.RiskLow
	default:
		return model.RiskLow
	}
}

func riskFromMonthly(monthly float64) model.RiskLevel {
	switch {
	case math.IsNaN(monthly) || math.IsInf(monthly, 0):
		return model.RiskMedium
	case monthly >= 100:
		return model.RiskHigh
	case monthly >= 10:
		return model.RiskMedium
	default:
		return model.RiskLow
	}
}

// observedDays is the baseline's timestamp span in days, never below 1.
// Fewer than two parseable timestamps defaults the window to one day.
func observedDays(baseline []model.UsageEvent) float64 {
	times := parseTimestamps(baseline)
	if len(times) < 2 {
		return 1
	}
	span := times[len(times)-1].Sub(times[0]).Hours() / 24
	if span < 1 {
		return 1
	}
	return span
}

var tsLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamps(events []model.UsageEvent) []time.Time {
	var times []time.Time
	for _, ev := range events {
		if t, ok := parseTS(ev.TS); ok {
			times = append(times, t)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	return times
}

func parseTS(ts string) (time.Time, bool) {
	if ts == "" {
		return time.Time{}, false
	}
	for _, layout := range tsLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// knobCauses lists the non-default transform knobs, most impactful first.
func knobCauses(spec CandidateSpec) []string {
	var causes []string
	if spec.RetriesDelta != 0 {
		causes = append(causes, fmt.Sprintf("retries %+d per call", spec.RetriesDelta))
	}
	if spec.Provider != "" {
		causes = append(causes, "provider → "+strings.ToLower(spec.Provider))
	}
	if spec.Model != "" {
		causes = append(causes, "model → "+spec.Model)
	}
	if spec.ContextMultiplier > 0 && spec.ContextMultiplier != 1 {
		causes = append(causes, fmt.Sprintf("context ×%g", spec.ContextMultiplier))
	}
	if spec.OutputMultiplier > 0 && spec.OutputMultiplier != 1 {
		causes = append(causes, fmt.Sprintf("output ×%g", spec.OutputMultiplier))
	}
	if spec.CallMultiplier > 0 && spec.CallMultiplier != 1 {
		causes = append(causes, fmt.Sprintf("calls ×%g", spec.CallMultiplier))
	}
	if len(causes) > 3 {
		causes = causes[:3]
	}
	return causes
}

// diffCauses compares the two analyses' breakdowns and names the three
// largest cost movements.
func diffCauses(base, cand model.Analysis) []string {
	type cause struct {
		label string
		delta float64
	}
	var all []cause
	for label, delta := range breakdownDeltas("model", base.ByModelTop, cand.ByModelTop) {
		all = append(all, cause{label, delta})
	}
	for label, delta := range breakdownDeltas("feature", base.ByFeatureTop, cand.ByFeatureTop) {
		all = append(all, cause{label, delta})
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].delta != all[j].delta {
			return all[i].delta > all[j].delta
		}
		return all[i].label < all[j].label
	})

	var causes []string
	for _, c := range all {
		if c.delta == 0 {
			continue
		}
		causes = append(causes, fmt.Sprintf("%s %+.2f USD", c.label, c.delta))
		if len(causes) == 3 {
			break
		}
	}
	return causes
}

func breakdownDeltas(kind string, base, cand []model.BreakdownRow) map[string]float64 {
	costs := make(map[string]float64)
	for _, row := range base {
		costs[kind+" "+row.Key] -= row.Cost
	}
	for _, row := range cand {
		costs[kind+" "+row.Key] += row.Cost
	}
	for k, v := range costs {
		costs[k] = round2(v)
	}
	return costs
}

func tokenDeltaLine(baseline, candidate []model.UsageEvent) string {
	var bIn, bOut, cIn, cOut int64
	for _, ev := range baseline {
		bIn += ev.InputTokens
		bOut += ev.OutputTokens
	}
	for _, ev := range candidate {
		cIn += ev.InputTokens
		cOut += ev.OutputTokens
	}
	return fmt.Sprintf("Token delta: input %+d, output %+d", cIn-bIn, cOut-bOut)
}

func reasonText(reasons []string) string {
	if len(reasons) == 0 {
		return "n/a"
	}
	return strings.Join(reasons, ", ")
}
