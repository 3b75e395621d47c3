package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// In-memory repositories back tests and DSN-less default wiring. Durable
// deployments use the Postgres implementations instead.

// MemoryScheduleRepository keeps schedule configs in a map.
type MemoryScheduleRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.ScheduleConfig
}

var _ ports.ScheduleRepository = (*MemoryScheduleRepository)(nil)

// NewMemoryScheduleRepository builds an empty repository.
func NewMemoryScheduleRepository() *MemoryScheduleRepository {
	return &MemoryScheduleRepository{byID: map[string]domain.ScheduleConfig{}}
}

// Create stores a new config.
func (r *MemoryScheduleRepository) Create(_ context.Context, cfg domain.ScheduleConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[cfg.ID] = cfg
	return nil
}

// Update replaces an existing config.
func (r *MemoryScheduleRepository) Update(_ context.Context, cfg domain.ScheduleConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[cfg.ID]; !ok {
		return fmt.Errorf("schedule %s: %w", cfg.ID, domain.ErrNotFound)
	}
	r.byID[cfg.ID] = cfg
	return nil
}

// Delete removes a config.
func (r *MemoryScheduleRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("schedule %s: %w", id, domain.ErrNotFound)
	}
	delete(r.byID, id)
	return nil
}

// Get returns one config.
func (r *MemoryScheduleRepository) Get(_ context.Context, id string) (domain.ScheduleConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.byID[id]
	if !ok {
		return domain.ScheduleConfig{}, fmt.Errorf("schedule %s: %w", id, domain.ErrNotFound)
	}
	return cfg, nil
}

// List returns every config sorted by name for stable output.
func (r *MemoryScheduleRepository) List(_ context.Context) ([]domain.ScheduleConfig, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ScheduleConfig, 0, len(r.byID))
	for _, cfg := range r.byID {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// MemoryBatchJobRepository keeps batch jobs in a map.
type MemoryBatchJobRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.BatchJob
}

var _ ports.BatchJobRepository = (*MemoryBatchJobRepository)(nil)

// NewMemoryBatchJobRepository builds an empty repository.
func NewMemoryBatchJobRepository() *MemoryBatchJobRepository {
	return &MemoryBatchJobRepository{byID: map[string]domain.BatchJob{}}
}

// Save upserts a job snapshot.
func (r *MemoryBatchJobRepository) Save(_ context.Context, job domain.BatchJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[job.ID] = job
	return nil
}

// Get returns one job.
func (r *MemoryBatchJobRepository) Get(_ context.Context, id string) (domain.BatchJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.byID[id]
	if !ok {
		return domain.BatchJob{}, fmt.Errorf("batch job %s: %w", id, domain.ErrNotFound)
	}
	return job, nil
}

// Delete removes a job.
func (r *MemoryBatchJobRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("batch job %s: %w", id, domain.ErrNotFound)
	}
	delete(r.byID, id)
	return nil
}

// List returns jobs, optionally filtered by status, newest first.
func (r *MemoryBatchJobRepository) List(_ context.Context, status domain.BatchStatus) ([]domain.BatchJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.BatchJob, 0, len(r.byID))
	for _, job := range r.byID {
		if status != "" && job.Status != status {
			continue
		}
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// MemoryArticleStore keeps raw and refined articles keyed by origin id.
type MemoryArticleStore struct {
	mu      sync.RWMutex
	raw     map[string]domain.RawArticle
	refined map[string]domain.RefinedArticle
}

var _ ports.ArticleStore = (*MemoryArticleStore)(nil)

// NewMemoryArticleStore builds an empty store.
func NewMemoryArticleStore() *MemoryArticleStore {
	return &MemoryArticleStore{
		raw:     map[string]domain.RawArticle{},
		refined: map[string]domain.RefinedArticle{},
	}
}

// Exists reports whether an origin id was ever saved.
func (s *MemoryArticleStore) Exists(_ context.Context, originID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.raw[originID]; ok {
		return true, nil
	}
	_, ok := s.refined[originID]
	return ok, nil
}

// Get returns one article; unrefined ones come back with a zero RefinedAt.
func (s *MemoryArticleStore) Get(_ context.Context, originID string) (domain.RefinedArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if article, ok := s.refined[originID]; ok {
		return article, nil
	}
	if raw, ok := s.raw[originID]; ok {
		return domain.RefinedArticle{RawArticle: raw}, nil
	}
	return domain.RefinedArticle{}, fmt.Errorf("article %s: %w", originID, domain.ErrNotFound)
}

// SaveRaw stores an unrefined article.
func (s *MemoryArticleStore) SaveRaw(_ context.Context, article domain.RawArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[article.OriginID] = article
	return nil
}

// SaveRefined stores a refined article.
func (s *MemoryArticleStore) SaveRefined(_ context.Context, article domain.RefinedArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refined[article.OriginID] = article
	return nil
}

// Refined returns one refined article for test assertions.
func (s *MemoryArticleStore) Refined(originID string) (domain.RefinedArticle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	article, ok := s.refined[originID]
	return article, ok
}
