// Package rates holds the static price sheet mapping provider+model to
// per-million-token USD prices, and resolves rates for usage events.
package rates

import "sort"

// Rate holds per-million-token prices for one model.
type Rate struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// ProviderRates is one provider's price sheet. DefaultEstimated is used for
// models the sheet does not list; every provider entry must carry one.
type ProviderRates struct {
	DefaultEstimated Rate            `json:"default_estimated"`
	Models           map[string]Rate `json:"models"`
}

// Table is the immutable pricing reference, loaded once per process.
type Table struct {
	Version   string                   `json:"version"`
	Date      string                   `json:"date"`
	Currency  string                   `json:"currency"`
	Units     string                   `json:"units"`
	Notes     string                   `json:"notes,omitempty"`
	Providers map[string]ProviderRates `json:"providers"`
}

// Kind tells how a rate was resolved.
type Kind string

const (
	// KindBilledCost: the event carried an externally recorded cost.
	KindBilledCost Kind = "billed_cost"
	// KindOfficial: exact model match (or a self-hosted provider, priced free).
	KindOfficial Kind = "official"
	// KindEstimated: default-estimated or generic fallback pricing.
	KindEstimated Kind = "estimated"
)

// Generic fallback for providers absent from the table. Deliberately
// pessimistic and independent of any table contents.
const (
	FallbackInputPerM  = 1.0
	FallbackOutputPerM = 4.0
)

// localProviders are self-hosted runtimes modeled as free inference,
// regardless of what the table says about them.
var localProviders = map[string]bool{
	"local":  true,
	"ollama": true,
	"vllm":   true,
}

// IsLocalProvider reports whether the provider id is a self-hosted runtime.
func IsLocalProvider(provider string) bool {
	return localProviders[provider]
}

// Resolution is the outcome of a rate lookup for one provider/model pair.
type Resolution struct {
	Kind          Kind
	InputPerM     float64
	OutputPerM    float64
	ProviderKnown bool
}

// Resolve looks up rates for a provider/model pair. Self-hosted providers
// resolve to zero official rates. Unknown providers resolve to the generic
// fallback estimate with ProviderKnown=false; unknown models under a known
// provider resolve to that provider's default_estimated rates.
func (t *Table) Resolve(provider, mdl string) Resolution {
	if IsLocalProvider(provider) {
		return Resolution{Kind: KindOfficial, ProviderKnown: true}
	}
	p, ok := t.Providers[provider]
	if !ok {
		return Resolution{
			Kind:       KindEstimated,
			InputPerM:  FallbackInputPerM,
			OutputPerM: FallbackOutputPerM,
		}
	}
	if r, ok := p.Models[mdl]; ok {
		return Resolution{Kind: KindOfficial, InputPerM: r.Input, OutputPerM: r.Output, ProviderKnown: true}
	}
	return Resolution{
		Kind:          KindEstimated,
		InputPerM:     p.DefaultEstimated.Input,
		OutputPerM:    p.DefaultEstimated.Output,
		ProviderKnown: true,
	}
}

// ProviderIDs returns the table's provider ids in ascending order.
// Go maps have no stable iteration order, so every consumer that needs
// table order uses this.
func (t *Table) ProviderIDs() []string {
	ids := make([]string, 0, len(t.Providers))
	for id := range t.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ModelIDs returns a provider's model ids in ascending order.
func (p ProviderRates) ModelIDs() []string {
	ids := make([]string, 0, len(p.Models))
	for id := range p.Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CheapestModel returns the provider's cheapest model by (input+output)/2.
// Ties go to the lexicographically first model id. ok is false when the
// provider is absent or lists no models.
func (t *Table) CheapestModel(provider string) (name string, r Rate, ok bool) {
	p, found := t.Providers[provider]
	if !found || len(p.Models) == 0 {
		return "", Rate{}, false
	}
	best := ""
	bestScore := 0.0
	for _, id := range p.ModelIDs() {
		score := (p.Models[id].Input + p.Models[id].Output) / 2
		if best == "" || score < bestScore {
			best = id
			bestScore = score
		}
	}
	return best, p.Models[best], true
}
