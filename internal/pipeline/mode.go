package pipeline

import "github.com/aiopt-dev/aiopt/internal/model"

// DetectMode classifies a whole batch as legacy or attempt-log. A single
// event carrying a trace id or an attempt ordinal > 0 flips the batch:
// attempt-log sources materialize each retry as its own line, so totals must
// not be retry-multiplied. The flag is decided once per batch and threaded
// through the engine and the guard, never re-derived per event.
func DetectMode(events []model.UsageEvent) model.Mode {
	for _, ev := range events {
		if ev.TraceID != "" {
			return model.ModeAttemptLog
		}
		if ev.AttemptKnown && ev.Attempt > 0 {
			return model.ModeAttemptLog
		}
	}
	return model.ModeLegacy
}

// retryMultiplier is the factor an event's attributed cost contributes to the
// batch total: (1 + retries) for legacy counts, 1 once attempts are already
// individual lines.
func retryMultiplier(mode model.Mode, ev model.UsageEvent) float64 {
	if mode == model.ModeLegacy {
		return float64(1 + ev.Retries)
	}
	return 1
}
