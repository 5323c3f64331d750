// Package model defines domain types for aiopt usage events and analysis results.
package model

// UsageEvent is one normalized usage-log record. Events are immutable once
// normalized; guard candidates are produced by cloning, never in place.
type UsageEvent struct {
	TS           string
	Provider     string // lower-cased
	Model        string
	InputTokens  int64
	OutputTokens int64
	FeatureTag   string
	Retries      int64
	Status       string

	// BilledCost is the externally recorded cost, when the log carried one.
	// nil means "not recorded", which is distinct from zero.
	BilledCost *float64

	// Attempt-log schema fields (optional).
	TraceID      string
	RequestID    string
	Attempt      int64
	AttemptKnown bool
	Endpoint     string
}

// Clone returns a copy of the event with its own BilledCost pointer.
func (e UsageEvent) Clone() UsageEvent {
	c := e
	if e.BilledCost != nil {
		v := *e.BilledCost
		c.BilledCost = &v
	}
	return c
}

// FeatureKey returns the grouping key for the event's feature tag.
// Empty tags group under "(none)".
func (e UsageEvent) FeatureKey() string {
	if e.FeatureTag == "" {
		return "(none)"
	}
	return e.FeatureTag
}

// ModelKey returns the provider:model grouping key.
func (e UsageEvent) ModelKey() string {
	return e.Provider + ":" + e.Model
}
