// Package exclusion tracks stimuli that cannot be rendered reliably and must
// never be shown to annotators. The registry is populated once, at process
// startup, and is read-only afterwards, so lookups need no locking.
package exclusion

import (
	"sort"

	"github.com/annolab/vidmark/internal/domain/stimulus"
)

// Registry is an immutable set of excluded stimulus identifiers.
type Registry struct {
	set map[stimulus.ID]struct{}
}

// NewRegistry builds a registry from the given identifiers. Duplicates
// collapse; order is irrelevant.
func NewRegistry(ids ...stimulus.ID) *Registry {
	set := make(map[stimulus.ID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &Registry{set: set}
}

// IsExcluded reports whether id is marked unrenderable.
func (r *Registry) IsExcluded(id stimulus.ID) bool {
	if r == nil {
		return false
	}
	_, ok := r.set[id]
	return ok
}

// Len returns the number of excluded identifiers.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.set)
}

// IDs returns the excluded identifiers sorted ascending by canonical form.
// Sorting keeps the persisted representation reproducible.
func (r *Registry) IDs() []stimulus.ID {
	if r == nil {
		return nil
	}

	ids := make([]stimulus.ID, 0, len(r.set))
	for id := range r.set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}
