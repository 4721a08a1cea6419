package engine

import (
	"sort"
	"strings"

	"dtl/internal/document"
)

// Registry holds every dataset known to one pipeline run: materialized
// sources first, then one entry per executed step. Entries are never
// deleted; the registry lives exactly as long as the run.
type Registry struct {
	sets map[string]document.Dataset
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]document.Dataset)}
}

// Register stores ds under name. Registering an existing name replaces
// the previous dataset, so later steps referencing the name see only
// the new value.
func (r *Registry) Register(name string, ds document.Dataset) {
	r.sets[name] = ds
}

// Lookup returns the dataset registered under name. An unknown name is
// a ConfigError naming the datasets that do exist.
func (r *Registry) Lookup(name string) (document.Dataset, error) {
	ds, ok := r.sets[name]
	if !ok {
		return nil, Configf("unknown dataset %q (registered: %s)", name, strings.Join(r.Names(), ", "))
	}
	return ds, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.sets[name]
	return ok
}

// Names returns the registered dataset names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sets))
	for name := range r.sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
