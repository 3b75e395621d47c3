package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/infrastructure/storage"
)

type stubProcessor struct {
	mu      sync.Mutex
	failAll bool
	failIDs map[string]bool
	calls   []string
}

func (p *stubProcessor) Process(_ context.Context, _ string, targetID string) error {
	p.mu.Lock()
	p.calls = append(p.calls, targetID)
	p.mu.Unlock()

	if p.failAll || p.failIDs[targetID] {
		return fmt.Errorf("process %s: article unavailable", targetID)
	}
	return nil
}

func waitForStatus(t *testing.T, m *Manager, id string, want domain.BatchStatus) domain.BatchJob {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		job, err := m.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Status == want {
			return job
		}
		select {
		case <-deadline:
			t.Fatalf("job never reached %s, stuck at %s", want, job.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSubmitProcessesAllItems(t *testing.T) {
	t.Parallel()

	processor := &stubProcessor{failIDs: map[string]bool{"a-2": true}}
	m := NewManager(storage.NewMemoryBatchJobRepository(), processor, 2, nil)

	job, err := m.Submit(context.Background(), []string{"a-1", "a-2", "a-3"}, domain.BatchOpRefine)
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}
	if job.Status != domain.BatchPending || job.TotalItems != 3 {
		t.Fatalf("unexpected initial job: %+v", job)
	}

	done := waitForStatus(t, m, job.ID, domain.BatchCompleted)
	if done.ProcessedItems != 3 || done.SuccessCount != 2 || done.FailedCount != 1 {
		t.Fatalf("unexpected counters: %+v", done)
	}
	if done.Progress != 100 {
		t.Fatalf("expected 100%% progress, got %d", done.Progress)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
	if !strings.Contains(done.Error, "a-2") {
		t.Fatalf("expected last item failure recorded, got %q", done.Error)
	}
}

func TestAllFailuresStillCompletes(t *testing.T) {
	t.Parallel()

	processor := &stubProcessor{failAll: true}
	m := NewManager(storage.NewMemoryBatchJobRepository(), processor, 0, nil)

	targets := []string{"a-1", "a-2", "a-3", "a-4", "a-5"}
	job, err := m.Submit(context.Background(), targets, domain.BatchOpPublish)
	if err != nil {
		t.Fatalf("submit returned error: %v", err)
	}

	done := waitForStatus(t, m, job.ID, domain.BatchCompleted)
	if done.SuccessCount != 0 || done.FailedCount != 5 {
		t.Fatalf("expected 0 succeeded / 5 failed, got %d / %d", done.SuccessCount, done.FailedCount)
	}
	if done.Status != domain.BatchCompleted {
		t.Fatalf("item failures must not fail the job, got %s", done.Status)
	}
}

func TestSubmitValidation(t *testing.T) {
	t.Parallel()

	m := NewManager(storage.NewMemoryBatchJobRepository(), &stubProcessor{}, 1, nil)

	if _, err := m.Submit(context.Background(), nil, domain.BatchOpRefine); err == nil {
		t.Fatal("expected error for empty target list")
	}
	if _, err := m.Submit(context.Background(), []string{"a-1"}, "translate"); err == nil {
		t.Fatal("expected error for unknown operation")
	}
}

func TestCancelPendingJob(t *testing.T) {
	t.Parallel()

	repo := storage.NewMemoryBatchJobRepository()
	m := NewManager(repo, &stubProcessor{}, 1, nil)

	// Seeded directly so no worker goroutine races the cancel.
	seed := domain.BatchJob{
		ID:         "j1",
		Operation:  domain.BatchOpRefine,
		TargetIDs:  []string{"a-1"},
		Status:     domain.BatchPending,
		TotalItems: 1,
		StartedAt:  time.Now().UTC(),
	}
	if err := repo.Save(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	cancelled, err := m.Cancel(context.Background(), "j1")
	if err != nil {
		t.Fatalf("cancel returned error: %v", err)
	}
	if cancelled.Status != domain.BatchCancelled || cancelled.CompletedAt == nil {
		t.Fatalf("unexpected cancelled job: %+v", cancelled)
	}
}

func TestCancelNonPendingRejected(t *testing.T) {
	t.Parallel()

	repo := storage.NewMemoryBatchJobRepository()
	m := NewManager(repo, &stubProcessor{}, 1, nil)

	for _, status := range []domain.BatchStatus{domain.BatchRunning, domain.BatchCompleted, domain.BatchCancelled} {
		id := "j-" + string(status)
		if err := repo.Save(context.Background(), domain.BatchJob{ID: id, Status: status, TotalItems: 1}); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
		if _, err := m.Cancel(context.Background(), id); !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("cancel %s: expected ErrInvalidState, got %v", status, err)
		}
	}
}

func TestDeleteGuardsActiveJobs(t *testing.T) {
	t.Parallel()

	repo := storage.NewMemoryBatchJobRepository()
	m := NewManager(repo, &stubProcessor{}, 1, nil)

	if err := repo.Save(context.Background(), domain.BatchJob{ID: "running", Status: domain.BatchRunning, TotalItems: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := m.Delete(context.Background(), "running"); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for running job, got %v", err)
	}

	if err := repo.Save(context.Background(), domain.BatchJob{ID: "done", Status: domain.BatchCompleted, TotalItems: 1}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := m.Delete(context.Background(), "done"); err != nil {
		t.Fatalf("delete completed job: %v", err)
	}
	if _, err := m.Get(context.Background(), "done"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected job gone, got %v", err)
	}
}

func TestCancelledBeforePickupNeverRuns(t *testing.T) {
	t.Parallel()

	repo := storage.NewMemoryBatchJobRepository()
	processor := &stubProcessor{}
	m := NewManager(repo, processor, 1, nil)

	if err := repo.Save(context.Background(), domain.BatchJob{
		ID:         "j1",
		Operation:  domain.BatchOpRefine,
		TargetIDs:  []string{"a-1"},
		Status:     domain.BatchCancelled,
		TotalItems: 1,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m.process("j1")

	job, err := m.Get(context.Background(), "j1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Status != domain.BatchCancelled {
		t.Fatalf("expected job to stay cancelled, got %s", job.Status)
	}
	if len(processor.calls) != 0 {
		t.Fatalf("expected no items processed, got %v", processor.calls)
	}
}
