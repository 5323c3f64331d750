package rates

// DefaultTable is the built-in price sheet, used when no rate table file is
// configured. Prices are USD per one million tokens.
var DefaultTable = Table{
	Version:  "2026.02",
	Date:     "2026-02-01",
	Currency: "USD",
	Units:    "usd_per_million_tokens",
	Providers: map[string]ProviderRates{
		"openai": {
			DefaultEstimated: Rate{Input: 2.50, Output: 10.00},
			Models: map[string]Rate{
				"gpt-4o":      {Input: 2.50, Output: 10.00},
				"gpt-4o-mini": {Input: 0.15, Output: 0.60},
				"gpt-4.1":     {Input: 2.00, Output: 8.00},
				"o3-mini":     {Input: 1.10, Output: 4.40},
			},
		},
		"anthropic": {
			DefaultEstimated: Rate{Input: 3.00, Output: 15.00},
			Models: map[string]Rate{
				"claude-opus-4":    {Input: 15.00, Output: 75.00},
				"claude-sonnet-4":  {Input: 3.00, Output: 15.00},
				"claude-haiku-3-5": {Input: 0.80, Output: 4.00},
			},
		},
		"google": {
			DefaultEstimated: Rate{Input: 1.25, Output: 5.00},
			Models: map[string]Rate{
				"gemini-2.5-pro":   {Input: 1.25, Output: 10.00},
				"gemini-2.5-flash": {Input: 0.30, Output: 2.50},
			},
		},
		"mistral": {
			DefaultEstimated: Rate{Input: 2.00, Output: 6.00},
			Models: map[string]Rate{
				"mistral-large": {Input: 2.00, Output: 6.00},
				"mistral-small": {Input: 0.10, Output: 0.30},
			},
		},
	},
}
