package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

const defaultConcurrency = 4

// Manager tracks ad-hoc bulk jobs over already-stored articles, independent
// of the crawl run lifecycle. Item outcomes come from the injected processor;
// a job is completed once every item was attempted, whatever the outcomes.
type Manager struct {
	repo        ports.BatchJobRepository
	processor   ports.BatchProcessor
	concurrency int
	logger      *slog.Logger

	// mu serializes job state transitions (submit/cancel vs. the worker
	// goroutine flipping pending to running).
	mu sync.Mutex
}

// NewManager wires the durable repository and the item processor.
func NewManager(repo ports.BatchJobRepository, processor ports.BatchProcessor, concurrency int, logger *slog.Logger) *Manager {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Manager{
		repo:        repo,
		processor:   processor,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Submit registers a job and starts processing it in the background.
func (m *Manager) Submit(ctx context.Context, targetIDs []string, operation string) (domain.BatchJob, error) {
	if len(targetIDs) == 0 {
		return domain.BatchJob{}, fmt.Errorf("submit batch: no targets")
	}
	if operation != domain.BatchOpRefine && operation != domain.BatchOpPublish {
		return domain.BatchJob{}, fmt.Errorf("submit batch: unknown operation %q", operation)
	}

	job := domain.BatchJob{
		ID:         uuid.NewString(),
		Operation:  operation,
		TargetIDs:  append([]string(nil), targetIDs...),
		Status:     domain.BatchPending,
		TotalItems: len(targetIDs),
		StartedAt:  time.Now().UTC(),
	}
	if err := m.repo.Save(ctx, job); err != nil {
		return domain.BatchJob{}, fmt.Errorf("save batch job: %w", err)
	}

	go m.process(job.ID)
	return job, nil
}

// Get returns one job.
func (m *Manager) Get(ctx context.Context, id string) (domain.BatchJob, error) {
	return m.repo.Get(ctx, id)
}

// List returns jobs, optionally filtered by status.
func (m *Manager) List(ctx context.Context, status domain.BatchStatus) ([]domain.BatchJob, error) {
	return m.repo.List(ctx, status)
}

// Cancel stops a job that has not started processing yet.
func (m *Manager) Cancel(ctx context.Context, id string) (domain.BatchJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, err := m.repo.Get(ctx, id)
	if err != nil {
		return domain.BatchJob{}, err
	}
	if job.Status != domain.BatchPending {
		return domain.BatchJob{}, fmt.Errorf("cancel job %s in status %s: %w", id, job.Status, domain.ErrInvalidState)
	}

	now := time.Now().UTC()
	job.Status = domain.BatchCancelled
	job.CompletedAt = &now
	if err := m.repo.Save(ctx, job); err != nil {
		return domain.BatchJob{}, fmt.Errorf("save cancelled job: %w", err)
	}
	return job, nil
}

// Delete removes a finished job. Deleting a pending or running job is
// rejected.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, err := m.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == domain.BatchPending || job.Status == domain.BatchRunning {
		return fmt.Errorf("delete job %s in status %s: %w", id, job.Status, domain.ErrInvalidState)
	}
	return m.repo.Delete(ctx, id)
}

// process is the single writer for one job's lifecycle. Items run with small
// bounded concurrency; outcomes flow back over a channel so counter updates
// stay serialized.
func (m *Manager) process(jobID string) {
	ctx := context.Background()

	m.mu.Lock()
	job, err := m.repo.Get(ctx, jobID)
	if err != nil || job.Status != domain.BatchPending {
		// Cancelled before the worker picked it up, or already gone.
		m.mu.Unlock()
		return
	}
	job.Status = domain.BatchRunning
	if err := m.repo.Save(ctx, job); err != nil {
		m.mu.Unlock()
		m.warn("mark job running failed", "job_id", jobID, "error", err)
		return
	}
	m.mu.Unlock()

	outcomes := make(chan error)
	sem := make(chan struct{}, m.concurrency)
	var wg sync.WaitGroup

	for _, targetID := range job.TargetIDs {
		wg.Add(1)
		go func(targetID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes <- m.processor.Process(ctx, job.Operation, targetID)
		}(targetID)
	}
	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for itemErr := range outcomes {
		job.ProcessedItems++
		if itemErr != nil {
			job.FailedCount++
			job.Error = itemErr.Error()
		} else {
			job.SuccessCount++
		}
		job.Progress = job.ProcessedItems * 100 / job.TotalItems
		if err := m.repo.Save(ctx, job); err != nil {
			m.warn("save job progress failed", "job_id", jobID, "error", err)
		}
	}

	now := time.Now().UTC()
	job.Status = domain.BatchCompleted
	job.CompletedAt = &now
	if err := m.repo.Save(ctx, job); err != nil {
		m.warn("mark job completed failed", "job_id", jobID, "error", err)
	}
	m.info("batch job completed", "job_id", jobID,
		"succeeded", job.SuccessCount, "failed", job.FailedCount)
}

func (m *Manager) info(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Manager) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}
