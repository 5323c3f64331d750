package model

// Mode tells how retries are interpreted for a whole batch of events.
type Mode int

const (
	// ModeLegacy: one line per logical call, carrying a retry count.
	// Totals multiply each event's cost by (1 + retries).
	ModeLegacy Mode = iota

	// ModeAttemptLog: every attempt is its own line, tagged with a trace id
	// and attempt ordinal. Totals are plain sums.
	ModeAttemptLog
)

func (m Mode) String() string {
	if m == ModeAttemptLog {
		return "attempt-log"
	}
	return "legacy"
}

// BreakdownRow is one entry of a cost breakdown (by model or by feature).
type BreakdownRow struct {
	Key    string  `json:"key"`
	Cost   float64 `json:"cost"`
	Events int     `json:"events"`
}

// UnknownModel records a provider/model pair that resolved to estimated rates.
type UnknownModel struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Reason   string `json:"reason"`
}

// Analysis is the cost report for one batch of events.
type Analysis struct {
	TotalCost        float64        `json:"total_cost"`
	ByModelTop       []BreakdownRow `json:"by_model_top"`
	ByFeatureTop     []BreakdownRow `json:"by_feature_top"`
	UnknownModels    []UnknownModel `json:"unknown_models"`
	RateTableVersion string         `json:"rate_table_version"`
	RateTableDate    string         `json:"rate_table_date"`
}

// Savings holds the three-lever savings allocation for one batch.
// EstimatedSavingsTotal is clamped to the batch total; the three component
// fields report their pre-clamp allocated sums, so in the clamped edge case
// they may add up to slightly more than the reported total.
type Savings struct {
	EstimatedSavingsTotal float64   `json:"estimated_savings_total"`
	RoutingSavings        float64   `json:"routing_savings"`
	ContextSavings        float64   `json:"context_savings"`
	RetryWaste            float64   `json:"retry_waste"`
	Notes                 [3]string `json:"notes"`
}

// PolicyRuleMatch selects the events a policy rule applies to.
type PolicyRuleMatch struct {
	Provider     string   `json:"provider,omitempty"`
	FeatureTagIn []string `json:"feature_tag_in,omitempty"`
	ModelUnknown bool     `json:"model_unknown,omitempty"`
}

// PolicyRuleAction is the recommendation attached to a rule.
type PolicyRuleAction struct {
	RecommendModel string `json:"recommend_model,omitempty"`
	Keep           bool   `json:"keep,omitempty"`
	Reason         string `json:"reason"`
}

// PolicyRule pairs a match with an action.
type PolicyRule struct {
	Match  PolicyRuleMatch  `json:"match"`
	Action PolicyRuleAction `json:"action"`
}

// PolicyBudgets carries budget metadata on the policy document.
type PolicyBudgets struct {
	Currency string `json:"currency"`
	Notes    string `json:"notes,omitempty"`
}

// PolicyGeneratedFrom records provenance for a policy document.
// Input is set by the caller once the input path is known.
type PolicyGeneratedFrom struct {
	RateTableVersion string `json:"rate_table_version"`
	Input            string `json:"input"`
}

// Policy is the declarative recommendation document derived from a batch.
// It is purely derivative and feeds nothing back into cost math.
type Policy struct {
	Version         int                 `json:"version"`
	DefaultProvider string              `json:"default_provider"`
	Rules           []PolicyRule        `json:"rules"`
	Budgets         PolicyBudgets       `json:"budgets"`
	GeneratedFrom   PolicyGeneratedFrom `json:"generated_from"`
}

// RiskLevel classifies the projected monthly cost impact.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// GuardResult is the verdict of one guard comparison.
// ExitCode follows the hard {0,2,3} contract: 0 OK, 2 warn, 3 fail.
type GuardResult struct {
	ExitCode int
	Message  string

	BaselineCost  float64
	CandidateCost float64
	Delta         float64
	MonthlyDelta  float64
	Risk          RiskLevel
	Confidence    RiskLevel
	Reasons       []string
	TopCauses     []string
	Mode          Mode
}
