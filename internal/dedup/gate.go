package dedup

import (
	"context"
	"fmt"
	"sync"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// Gate decides whether an origin id enters the pipeline. The first Accept for
// an id returns true and records it; every repeat returns false. When an
// article store is attached, ids persisted by earlier runs are rejected too.
type Gate struct {
	store    ports.DedupStore
	articles ports.ArticleStore
}

// NewGate wires the set-like backing store; articles may be nil.
func NewGate(store ports.DedupStore, articles ports.ArticleStore) *Gate {
	return &Gate{store: store, articles: articles}
}

// Accept atomically records the id and reports whether it was first seen.
// A backend failure surfaces as ErrStorageUnavailable rather than a silent
// duplicate admission.
func (g *Gate) Accept(ctx context.Context, originID string) (bool, error) {
	if g.articles != nil {
		exists, err := g.articles.Exists(ctx, originID)
		if err != nil {
			return false, fmt.Errorf("dedup lookup %s: %w: %v", originID, domain.ErrStorageUnavailable, err)
		}
		if exists {
			return false, nil
		}
	}

	admitted, err := g.store.SetIfAbsent(ctx, originID)
	if err != nil {
		return false, fmt.Errorf("dedup accept %s: %w: %v", originID, domain.ErrStorageUnavailable, err)
	}
	return admitted, nil
}

// MemoryStore is a process-local DedupStore used by tests and by default
// wiring when no redis address is configured.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

var _ ports.DedupStore = (*MemoryStore)(nil)

// NewMemoryStore builds an empty in-memory set.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: map[string]struct{}{}}
}

// SetIfAbsent records the id under the lock so two concurrent callers can
// never both observe "not seen".
func (m *MemoryStore) SetIfAbsent(_ context.Context, originID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[originID]; ok {
		return false, nil
	}
	m.seen[originID] = struct{}{}
	return true, nil
}
