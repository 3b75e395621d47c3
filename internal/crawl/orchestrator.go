package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"NewsRefinery/internal/dedup"
	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
	"NewsRefinery/internal/refine"
	"NewsRefinery/internal/sources"
)

const defaultRunTimeout = 10 * time.Minute

// Request describes one crawl run.
type Request struct {
	Languages            []string
	SourceIDs            []string
	BudgetPerLanguage    int
	MaxArticlesPerSource int
	QualityThreshold     float64
	Refine               bool
}

// LanguageResult is the terminal outcome for one language.
type LanguageResult struct {
	Language string
	Progress domain.RunProgress
	Articles []domain.RefinedArticle
}

// RunResult aggregates per-language outcomes for one run. Partial success is
// a first-class result: completed languages carry articles even when sibling
// languages failed.
type RunResult struct {
	RunID     string
	Languages map[string]LanguageResult
}

// Succeeded reports whether every requested language completed.
func (r RunResult) Succeeded() bool {
	if len(r.Languages) == 0 {
		return false
	}
	for _, lr := range r.Languages {
		if lr.Progress.Status != domain.RunCompleted {
			return false
		}
	}
	return true
}

// Orchestrator fans one worker per language out over a run request and fans
// their terminal results back in.
type Orchestrator struct {
	registry   *sources.Registry
	fetcher    ports.Fetcher
	gate       *dedup.Gate
	stage      *refine.Stage
	tracker    *Tracker
	store      ports.ArticleStore
	runTimeout time.Duration
	logger     *slog.Logger
}

// OrchestratorDeps wires the collaborators; stage and store may be nil.
type OrchestratorDeps struct {
	Registry   *sources.Registry
	Fetcher    ports.Fetcher
	Gate       *dedup.Gate
	Stage      *refine.Stage
	Tracker    *Tracker
	Store      ports.ArticleStore
	RunTimeout time.Duration
	Logger     *slog.Logger
}

// NewOrchestrator constructs the fan-out coordinator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	timeout := deps.RunTimeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	return &Orchestrator{
		registry:   deps.Registry,
		fetcher:    deps.Fetcher,
		gate:       deps.Gate,
		stage:      deps.Stage,
		tracker:    deps.Tracker,
		store:      deps.Store,
		runTimeout: timeout,
		logger:     deps.Logger,
	}
}

// Tracker exposes the progress tracker for read-only observers.
func (o *Orchestrator) Tracker() *Tracker {
	return o.tracker
}

// Start registers a run and executes it in the background, returning the run
// id immediately. Failures surface only through polled progress.
func (o *Orchestrator) Start(req Request) (string, error) {
	if len(req.Languages) == 0 {
		return "", fmt.Errorf("start run: no languages requested")
	}

	runID := uuid.NewString()
	o.tracker.StartRun(runID, req.Languages)
	go func() {
		o.execute(context.Background(), runID, req)
	}()
	return runID, nil
}

// Run executes a crawl synchronously and returns once every language reached
// a terminal state.
func (o *Orchestrator) Run(ctx context.Context, req Request) (RunResult, error) {
	if len(req.Languages) == 0 {
		return RunResult{}, fmt.Errorf("run crawl: no languages requested")
	}

	runID := uuid.NewString()
	o.tracker.StartRun(runID, req.Languages)
	return o.execute(ctx, runID, req), nil
}

func (o *Orchestrator) execute(ctx context.Context, runID string, req Request) RunResult {
	runCtx, cancel := context.WithTimeout(ctx, o.runTimeout)
	defer cancel()

	o.info("run started", "run_id", runID, "languages", req.Languages, "refine", req.Refine)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[string]LanguageResult{}
	)

	for _, language := range req.Languages {
		wg.Add(1)
		go func(language string) {
			defer wg.Done()

			w := &worker{
				language: language,
				registry: o.registry,
				fetcher:  o.fetcher,
				gate:     o.gate,
				stage:    o.stage,
				tracker:  o.tracker,
				logger:   o.loggerFor(language),
			}
			articles := w.run(runCtx, runID, req)

			mu.Lock()
			results[language] = LanguageResult{Language: language, Articles: articles}
			mu.Unlock()
		}(language)
	}
	wg.Wait()

	// A worker that never reached a terminal state (crash, missed cancel)
	// still must not leave the run dangling.
	result := RunResult{RunID: runID, Languages: map[string]LanguageResult{}}
	for _, language := range req.Languages {
		progress, err := o.tracker.Progress(runID, language)
		if err != nil {
			continue
		}
		if !progress.Status.Terminal() {
			o.tracker.Fail(runID, language, "timeout")
			progress, _ = o.tracker.Progress(runID, language)
		}

		lr := results[language]
		lr.Language = language
		lr.Progress = progress
		if progress.Status != domain.RunCompleted {
			lr.Articles = nil
		}
		result.Languages[language] = lr
	}

	o.persist(ctx, result)
	o.info("run finished", "run_id", runID, "succeeded", result.Succeeded())
	return result
}

// persist saves articles for completed languages only; failed languages are
// excluded from downstream persistence.
func (o *Orchestrator) persist(ctx context.Context, result RunResult) {
	if o.store == nil {
		return
	}
	for _, lr := range result.Languages {
		if lr.Progress.Status != domain.RunCompleted {
			continue
		}
		for _, article := range lr.Articles {
			var err error
			if article.RefinedAt.IsZero() {
				err = o.store.SaveRaw(ctx, article.RawArticle)
			} else {
				err = o.store.SaveRefined(ctx, article)
			}
			if err != nil {
				o.warn("persist article failed", "run_id", result.RunID, "origin_id", article.OriginID, "error", err)
			}
		}
	}
}

func (o *Orchestrator) loggerFor(language string) *slog.Logger {
	if o.logger == nil {
		return nil
	}
	return o.logger.With("language", language)
}

func (o *Orchestrator) info(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}
