package pipeline

import (
	"strings"
	"testing"

	"github.com/aiopt-dev/aiopt/internal/model"
	"github.com/aiopt-dev/aiopt/internal/rates"
)

// guardBaseline is two tagged events a day apart on official rates, so no
// data-quality flag fires and the observation window is exactly one day.
func guardBaseline() []model.UsageEvent {
	return []model.UsageEvent{
		{TS: "2026-01-01T00:00:00Z", Provider: "openai", Model: "gpt-4o-mini",
			InputTokens: 1_000_000, FeatureTag: "chat"},
		{TS: "2026-01-02T00:00:00Z", Provider: "openai", Model: "gpt-4o-mini",
			InputTokens: 1_000_000, FeatureTag: "chat"},
	}
}

func TestGuardEmptyBaseline(t *testing.T) {
	rt := &rates.DefaultTable
	got := Guard(rt, GuardInput{})

	if got.ExitCode != 3 {
		t.Errorf("exit = %d, want 3", got.ExitCode)
	}
	if !strings.Contains(got.Message, "baseline usage is empty") {
		t.Errorf("message missing empty-baseline text:\n%s", got.Message)
	}
	if got.Risk != model.RiskHigh {
		t.Errorf("risk = %v, want High", got.Risk)
	}
	if got.Confidence != model.RiskLow {
		t.Errorf("confidence = %v, want Low", got.Confidence)
	}
}

func TestGuardNoChangeIsOK(t *testing.T) {
	rt := &rates.DefaultTable
	got := Guard(rt, GuardInput{BaselineEvents: guardBaseline()})

	if got.ExitCode != 0 {
		t.Errorf("exit = %d, want 0\n%s", got.ExitCode, got.Message)
	}
	if got.Risk != model.RiskLow {
		t.Errorf("risk = %v, want Low", got.Risk)
	}
	if got.Delta != 0 {
		t.Errorf("delta = %v, want 0", got.Delta)
	}
	if !strings.HasPrefix(got.Message, "OK:") {
		t.Errorf("message = %q, want OK headline", got.Message)
	}
}

func TestGuardModelSwapFails(t *testing.T) {
	rt := &rates.DefaultTable
	got := Guard(rt, GuardInput{
		BaselineEvents: guardBaseline(),
		Candidate:      CandidateSpec{Model: "gpt-4o"},
	})

	// Baseline $0.30, candidate $5.00: +$4.70 over one day projects to
	// $141/month, firmly in the fail band.
	if got.ExitCode != 3 {
		t.Errorf("exit = %d, want 3\n%s", got.ExitCode, got.Message)
	}
	if got.Risk != model.RiskHigh {
		t.Errorf("risk = %v, want High", got.Risk)
	}
	if got.Confidence != model.RiskMedium {
		t.Errorf("confidence = %v, want Medium for a model swap", got.Confidence)
	}
	if got.MonthlyDelta != 141.00 {
		t.Errorf("monthly = %v, want 141.00", got.MonthlyDelta)
	}
	if !strings.Contains(got.Message, "model → gpt-4o") {
		t.Errorf("message missing model cause:\n%s", got.Message)
	}
}

func TestGuardCallMultiplierWarnBand(t *testing.T) {
	rt := &rates.DefaultTable
	got := Guard(rt, GuardInput{
		BaselineEvents: guardBaseline(),
		Candidate:      CandidateSpec{CallMultiplier: 3},
	})

	// $0.30 -> $0.90: +$0.60 over one day is $18/month.
	if got.ExitCode != 2 {
		t.Errorf("exit = %d, want 2\n%s", got.ExitCode, got.Message)
	}
	if got.Risk != model.RiskMedium {
		t.Errorf("risk = %v, want Medium", got.Risk)
	}
	if !strings.Contains(got.Message, "Call volume: ×3") {
		t.Errorf("message missing call volume line:\n%s", got.Message)
	}
}

func TestGuardBudgetCeilingForcesFail(t *testing.T) {
	rt := &rates.DefaultTable
	got := Guard(rt, GuardInput{
		BaselineEvents: guardBaseline(),
		Candidate:      CandidateSpec{BudgetMonthlyUSD: 5},
	})

	// No behavior change at all, but $0.30/day projects to $9/month over
	// the $5 ceiling.
	if got.ExitCode != 3 {
		t.Errorf("exit = %d, want 3\n%s", got.ExitCode, got.Message)
	}
	if !strings.Contains(got.Message, "exceeds monthly budget") {
		t.Errorf("message missing budget headline:\n%s", got.Message)
	}
	if got.Risk != model.RiskLow {
		t.Errorf("risk = %v, want Low (delta itself is zero)", got.Risk)
	}
}

func TestGuardDiffModeClearsBilledCosts(t *testing.T) {
	rt := &rates.DefaultTable

	// Identical usage on both sides; the candidate's recorded costs must be
	// ignored or the diff would show a phantom spike.
	candidate := guardBaseline()
	for i := range candidate {
		candidate[i].BilledCost = fp(500)
	}
	got := Guard(rt, GuardInput{
		BaselineEvents:  guardBaseline(),
		CandidateEvents: candidate,
	})

	if got.Delta != 0 {
		t.Errorf("delta = %v, want 0", got.Delta)
	}
	if got.Confidence != model.RiskHigh {
		t.Errorf("confidence = %v, want High for a real log diff", got.Confidence)
	}
	if !strings.Contains(got.Message, "actual logs diff") {
		t.Errorf("message missing diff reason:\n%s", got.Message)
	}
	if !strings.Contains(got.Message, "Token delta:") {
		t.Errorf("message missing token delta line:\n%s", got.Message)
	}
}

func TestGuardDiffModeEmptyCandidateLog(t *testing.T) {
	rt := &rates.DefaultTable

	// A zero-event candidate log reads back as a nil slice, but with the
	// flag set it still diffs as "all traffic went away" rather than
	// falling back to a no-knob transform of the baseline.
	got := Guard(rt, GuardInput{
		BaselineEvents: guardBaseline(),
		DiffMode:       true,
	})

	if got.CandidateCost != 0 {
		t.Errorf("candidate cost = %v, want 0", got.CandidateCost)
	}
	if got.Delta != -0.30 {
		t.Errorf("delta = %v, want -0.30", got.Delta)
	}
	if got.ExitCode != 0 {
		t.Errorf("exit = %d, want 0 (cost only drops)\n%s", got.ExitCode, got.Message)
	}
	if got.Confidence != model.RiskHigh {
		t.Errorf("confidence = %v, want High for a real log diff", got.Confidence)
	}
	if !strings.Contains(got.Message, "actual logs diff") {
		t.Errorf("message missing diff reason:\n%s", got.Message)
	}
	if !strings.Contains(got.Message, "Token delta: input -2000000") {
		t.Errorf("message missing negative token delta:\n%s", got.Message)
	}
}

func TestGuardRetriesDeltaAttemptLog(t *testing.T) {
	rt := &rates.DefaultTable

	// Attempt-log baseline: the retried line costs $0.30, so each added
	// retry per call is priced at that observed unit.
	baseline := []model.UsageEvent{
		{TS: "2026-01-01T00:00:00Z", Provider: "openai", Model: "gpt-4o-mini",
			InputTokens: 1_000_000, FeatureTag: "chat", TraceID: "t1", Attempt: 1, AttemptKnown: true},
		{TS: "2026-01-01T12:00:00Z", Provider: "openai", Model: "gpt-4o-mini",
			InputTokens: 2_000_000, FeatureTag: "chat", TraceID: "t1", Attempt: 2, AttemptKnown: true},
		{TS: "2026-01-02T00:00:00Z", Provider: "openai", Model: "gpt-4o-mini",
			InputTokens: 1_000_000, FeatureTag: "chat", TraceID: "t2", Attempt: 1, AttemptKnown: true},
	}
	got := Guard(rt, GuardInput{
		BaselineEvents: baseline,
		Candidate:      CandidateSpec{RetriesDelta: 2},
	})

	// Baseline $0.60, candidate $0.60 + 2 x $0.30 = $1.20.
	if got.CandidateCost != 1.20 {
		t.Errorf("candidate cost = %v, want 1.20", got.CandidateCost)
	}
	if got.ExitCode != 2 {
		t.Errorf("exit = %d, want 2 (+$18/month)\n%s", got.ExitCode, got.Message)
	}
	if got.Confidence != model.RiskHigh {
		t.Errorf("confidence = %v, want High for a retries change", got.Confidence)
	}
	if got.Mode != model.ModeAttemptLog {
		t.Errorf("mode = %v, want attempt-log", got.Mode)
	}
}

func TestGuardDataQualityDegradesConfidence(t *testing.T) {
	rt := &rates.DefaultTable

	// Two flags: a sub-six-hour window and all feature tags missing.
	baseline := []model.UsageEvent{
		{TS: "2026-01-01T00:00:00Z", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 1_000_000},
		{TS: "2026-01-01T01:00:00Z", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 1_000_000},
	}
	got := Guard(rt, GuardInput{
		BaselineEvents: baseline,
		Candidate:      CandidateSpec{RetriesDelta: 1},
	})

	if got.Confidence != model.RiskLow {
		t.Errorf("confidence = %v, want Low after two quality flags", got.Confidence)
	}
	if !strings.Contains(got.Message, "short observation window") {
		t.Errorf("message missing window reason:\n%s", got.Message)
	}
	if !strings.Contains(got.Message, "missing feature_tag") {
		t.Errorf("message missing tag reason:\n%s", got.Message)
	}
}

func TestGuardContextMultiplierScalesTokens(t *testing.T) {
	rt := &rates.DefaultTable
	got := Guard(rt, GuardInput{
		BaselineEvents: guardBaseline(),
		Candidate:      CandidateSpec{ContextMultiplier: 2},
	})

	if got.CandidateCost != 0.60 {
		t.Errorf("candidate cost = %v, want 0.60", got.CandidateCost)
	}
	if got.Confidence != model.RiskLow {
		t.Errorf("confidence = %v, want Low for a token-length guess", got.Confidence)
	}
	if !strings.Contains(got.Message, "context ×2") {
		t.Errorf("message missing context cause:\n%s", got.Message)
	}
}

func TestGuardUnparseableTimestampsDefaultToOneDay(t *testing.T) {
	rt := &rates.DefaultTable
	baseline := []model.UsageEvent{
		{TS: "not a time", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 1_000_000, FeatureTag: "chat"},
		{TS: "", Provider: "openai", Model: "gpt-4o-mini", InputTokens: 1_000_000, FeatureTag: "chat"},
	}
	got := Guard(rt, GuardInput{
		BaselineEvents: baseline,
		Candidate:      CandidateSpec{Model: "gpt-4o"},
	})

	// Same +$4.70 delta as the parseable case: the window floors at one day.
	if got.MonthlyDelta != 141.00 {
		t.Errorf("monthly = %v, want 141.00", got.MonthlyDelta)
	}
}
