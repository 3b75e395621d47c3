package sources

import (
	"fmt"
	"sort"
	"sync"

	"NewsRefinery/internal/domain"
)

// Registry keeps the configured content sources and answers per-language
// lookups. It is safe for concurrent read by all language workers; writes go
// through Upsert/Deactivate only. Sources referenced by an in-flight run are
// never removed, only deactivated.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]domain.Source
	order map[string]int
	seq   int
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:  map[string]domain.Source{},
		order: map[string]int{},
	}
}

// Upsert adds or replaces a source. Insertion order is remembered once and
// serves as the stable tie-break for equal priority and quality.
func (r *Registry) Upsert(src domain.Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.order[src.ID]; !ok {
		r.order[src.ID] = r.seq
		r.seq++
	}
	r.byID[src.ID] = src
}

// Deactivate soft-disables a source so future runs skip it.
func (r *Registry) Deactivate(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("deactivate source %s: %w", id, domain.ErrNotFound)
	}
	src.Active = false
	r.byID[id] = src
	return nil
}

// Get returns a source by id.
func (r *Registry) Get(id string) (domain.Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	src, ok := r.byID[id]
	if !ok {
		return domain.Source{}, fmt.Errorf("get source %s: %w", id, domain.ErrNotFound)
	}
	return src, nil
}

// ActiveForLanguage returns the active sources for one language, sorted by
// priority desc, then quality score desc, then insertion order.
func (r *Registry) ActiveForLanguage(language string) []domain.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]domain.Source, 0, len(r.byID))
	for _, src := range r.byID {
		if src.Active && src.Language == language {
			matched = append(matched, src)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.QualityScore != b.QualityScore {
			return a.QualityScore > b.QualityScore
		}
		return r.order[a.ID] < r.order[b.ID]
	})

	return matched
}
