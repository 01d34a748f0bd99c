package adapters

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xkilldash9x/scalpel-compare/internal/taxonomy"
)

// Registry resolves tool names to adapters. It is populated once at startup
// and only read afterwards, so lookups are safe from concurrent goroutines.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// DefaultRegistry registers every built-in adapter over one classifier.
func DefaultRegistry(classifier *taxonomy.Classifier) *Registry {
	if classifier == nil {
		classifier = taxonomy.DefaultClassifier()
	}
	return NewRegistry(
		NewSemgrepAdapter(classifier),
		NewCodeQLAdapter(classifier),
		NewSnykAdapter(classifier),
		NewBearerAdapter(classifier),
		NewGosecAdapter(classifier),
	)
}

// Register adds or replaces the adapter for a.Name().
func (r *Registry) Register(a Adapter) {
	r.adapters[strings.ToLower(a.Name())] = a
}

// Lookup finds an adapter by case-insensitive tool name.
func (r *Registry) Lookup(name string) (Adapter, error) {
	a, ok := r.adapters[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return a, nil
}

// Names lists the registered tools in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
