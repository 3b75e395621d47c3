package fetcher

import (
	"context"
	"fmt"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

const defaultStrategy = "rss"

// Registry dispatches fetches to the strategy named by the source. It
// implements ports.Fetcher itself so workers stay strategy-agnostic.
type Registry struct {
	strategies map[string]ports.Fetcher
}

var _ ports.Fetcher = (*Registry)(nil)

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]ports.Fetcher{}}
}

// Register adds or replaces a strategy under a name.
func (r *Registry) Register(name string, f ports.Fetcher) {
	r.strategies[name] = f
}

// Fetch resolves the source's strategy and delegates to it. Sources without
// an explicit strategy use RSS.
func (r *Registry) Fetch(ctx context.Context, source domain.Source) ([]domain.RawArticle, error) {
	name := source.Fetcher
	if name == "" {
		name = defaultStrategy
	}
	strategy, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("fetcher %q is not registered", name)
	}
	return strategy.Fetch(ctx, source)
}
