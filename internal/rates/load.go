package rates

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadFile reads a rate table from a JSON file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rate table: %w", err)
	}
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing rate table %s: %w", path, err)
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("rate table %s: %w", path, err)
	}
	return &t, nil
}

// validate enforces the table invariant: every provider present carries a
// non-zero default_estimated rate pair.
func (t *Table) validate() error {
	for _, id := range t.ProviderIDs() {
		p := t.Providers[id]
		if p.DefaultEstimated.Input == 0 && p.DefaultEstimated.Output == 0 {
			return fmt.Errorf("provider %q has no default_estimated rates", id)
		}
	}
	return nil
}

// Override replaces prices for specific provider/model pairs, typically from
// user config. Unknown providers are added with the override rate doubling as
// default_estimated.
func (t *Table) Override(provider, mdl string, r Rate) {
	p, ok := t.Providers[provider]
	if !ok {
		p = ProviderRates{DefaultEstimated: r, Models: map[string]Rate{}}
	}
	if p.Models == nil {
		p.Models = map[string]Rate{}
	}
	p.Models[mdl] = r
	t.Providers[provider] = p
}

// Copy returns a deep copy so overrides never mutate the shared default table.
func (t *Table) Copy() *Table {
	c := *t
	c.Providers = make(map[string]ProviderRates, len(t.Providers))
	for id, p := range t.Providers {
		models := make(map[string]Rate, len(p.Models))
		for m, r := range p.Models {
			models[m] = r
		}
		c.Providers[id] = ProviderRates{DefaultEstimated: p.DefaultEstimated, Models: models}
	}
	return &c
}
