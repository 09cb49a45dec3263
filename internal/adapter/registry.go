package adapter

import "fmt"

// Registry is the fixed set of source adapters the process knows about,
// built once at startup. Unlike the original's dynamic PROVIDER_REGISTRY
// dict keyed by string and populated by import side effects, every entry
// here is a concrete constructor call in the wiring package: an unknown
// source name is a compile error, not a nil lookup discovered at runtime.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry builds a Registry from an explicit list of providers,
// preserving constructor order for deterministic iteration (used by the
// orchestrator's fetch phase).
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		name := p.SourceName()
		if _, exists := r.providers[name]; exists {
			return nil, fmt.Errorf("duplicate adapter source name %q", name)
		}
		r.providers[name] = p
		r.order = append(r.order, name)
	}
	return r, nil
}

// Get looks up a single adapter by its source key.
func (r *Registry) Get(source string) (Provider, bool) {
	p, ok := r.providers[source]
	return p, ok
}

// All returns every registered adapter in constructor order.
func (r *Registry) All() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.providers[name])
	}
	return out
}

// Enabled returns every registered adapter whose Enabled() is true, in
// constructor order — the set the orchestrator actually fetches from.
func (r *Registry) Enabled() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, name := range r.order {
		if p := r.providers[name]; p.Enabled() {
			out = append(out, p)
		}
	}
	return out
}
