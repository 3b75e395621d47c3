package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"NewsRefinery/internal/crawl"
	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

const defaultTick = time.Minute

// Runner executes a crawl run to completion. Implemented by the orchestrator.
type Runner interface {
	Run(ctx context.Context, req crawl.Request) (crawl.RunResult, error)
}

// Manager owns recurring run configurations: CRUD with cron validation,
// due-time computation, run statistics and the run loop that triggers the
// orchestrator when a schedule comes due.
type Manager struct {
	repo   ports.ScheduleRepository
	cron   ports.CronEvaluator
	runner Runner
	logger *slog.Logger
	now    func() time.Time
	tick   time.Duration
	stop   chan struct{}
}

// NewManager wires the durable repository, the cron evaluator and the runner.
func NewManager(repo ports.ScheduleRepository, cronEval ports.CronEvaluator, runner Runner, logger *slog.Logger) *Manager {
	return &Manager{
		repo:   repo,
		cron:   cronEval,
		runner: runner,
		logger: logger,
		now:    time.Now,
		tick:   defaultTick,
	}
}

// Create validates the cron expression, computes the first activation and
// persists the configuration.
func (m *Manager) Create(ctx context.Context, cfg domain.ScheduleConfig) (domain.ScheduleConfig, error) {
	if err := m.cron.Validate(cfg.CronExpression); err != nil {
		return domain.ScheduleConfig{}, err
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	next, err := m.cron.Next(cfg.CronExpression, m.now())
	if err != nil {
		return domain.ScheduleConfig{}, err
	}
	cfg.NextRunAt = next

	if err := m.repo.Create(ctx, cfg); err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("create schedule: %w", err)
	}
	return cfg, nil
}

// Update validates and recomputes the next activation before persisting.
func (m *Manager) Update(ctx context.Context, cfg domain.ScheduleConfig) (domain.ScheduleConfig, error) {
	if err := m.cron.Validate(cfg.CronExpression); err != nil {
		return domain.ScheduleConfig{}, err
	}

	next, err := m.cron.Next(cfg.CronExpression, m.now())
	if err != nil {
		return domain.ScheduleConfig{}, err
	}
	cfg.NextRunAt = next

	if err := m.repo.Update(ctx, cfg); err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("update schedule %s: %w", cfg.ID, err)
	}
	return cfg, nil
}

// Delete removes a configuration.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.repo.Delete(ctx, id)
}

// Get returns one configuration.
func (m *Manager) Get(ctx context.Context, id string) (domain.ScheduleConfig, error) {
	return m.repo.Get(ctx, id)
}

// List returns every configuration.
func (m *Manager) List(ctx context.Context) ([]domain.ScheduleConfig, error) {
	return m.repo.List(ctx)
}

// Due returns the active configurations whose next activation is at or
// before the given instant.
func (m *Manager) Due(ctx context.Context, at time.Time) ([]domain.ScheduleConfig, error) {
	all, err := m.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	var due []domain.ScheduleConfig
	for _, cfg := range all {
		if cfg.Active && !cfg.NextRunAt.After(at) {
			due = append(due, cfg)
		}
	}
	return due, nil
}

// RecordRun updates run statistics after a run reached a terminal state:
// total always, successful only on success, and the next activation is
// recomputed relative to now.
func (m *Manager) RecordRun(ctx context.Context, id string, success bool) error {
	cfg, err := m.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("record run for %s: %w", id, err)
	}

	now := m.now()
	cfg.TotalRuns++
	if success {
		cfg.SuccessfulRuns++
	}
	cfg.LastRunAt = &now

	next, err := m.cron.Next(cfg.CronExpression, now)
	if err != nil {
		return err
	}
	cfg.NextRunAt = next

	if err := m.repo.Update(ctx, cfg); err != nil {
		return fmt.Errorf("record run for %s: %w", id, err)
	}
	return nil
}

// Start launches the run loop: every tick, trigger due schedules and record
// their outcomes. Stop or context cancellation ends the loop.
func (m *Manager) Start(ctx context.Context) {
	if m.stop != nil {
		return
	}
	m.stop = make(chan struct{})

	go func() {
		ticker := time.NewTicker(m.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.runDue(ctx)
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop halts the run loop goroutine.
func (m *Manager) Stop() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	m.stop = nil
}

// runDue triggers every due schedule sequentially; one broken schedule does
// not block the loop tick, only the remainder of that tick.
func (m *Manager) runDue(ctx context.Context) {
	due, err := m.Due(ctx, m.now())
	if err != nil {
		m.warn("due check failed", "error", err)
		return
	}

	for _, cfg := range due {
		m.info("schedule due", "schedule_id", cfg.ID, "name", cfg.Name)

		result, runErr := m.runner.Run(ctx, crawl.Request{
			Languages:            cfg.TargetLanguages,
			SourceIDs:            cfg.SourceIDs,
			MaxArticlesPerSource: cfg.MaxArticlesPerSource,
			QualityThreshold:     cfg.QualityThreshold,
			Refine:               true,
		})

		success := runErr == nil && result.Succeeded()
		if err := m.RecordRun(ctx, cfg.ID, success); err != nil {
			m.warn("record run failed", "schedule_id", cfg.ID, "error", err)
		}
	}
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
