package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"NewsRefinery/internal/api"
	"NewsRefinery/internal/batch"
	"NewsRefinery/internal/config"
	"NewsRefinery/internal/crawl"
	"NewsRefinery/internal/dedup"
	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/infrastructure/fetcher"
	"NewsRefinery/internal/infrastructure/llm"
	"NewsRefinery/internal/infrastructure/publish"
	"NewsRefinery/internal/infrastructure/scheduler"
	"NewsRefinery/internal/infrastructure/storage"
	"NewsRefinery/internal/logging"
	"NewsRefinery/internal/ports"
	"NewsRefinery/internal/refine"
	"NewsRefinery/internal/schedule"
	"NewsRefinery/internal/sources"
)

// Application wires configs to components and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	server    *api.Server
	schedules *schedule.Manager
	db        *sql.DB
	logger    *slog.Logger
}

// New builds a runnable application instance. Postgres and redis are
// optional: without a DSN everything stays in memory, without a redis
// address dedup uses the in-process set.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := sources.NewRegistry()
	for _, sc := range cfg.Sources {
		registry.Upsert(domain.Source{
			ID:                   sc.ID,
			Name:                 sc.Name,
			Language:             sc.Language,
			Country:              sc.Country,
			Region:               sc.Region,
			Category:             sc.Category,
			FeedURL:              sc.FeedURL,
			Fetcher:              sc.Fetcher,
			Priority:             sc.Priority,
			QualityScore:         sc.QualityScore,
			Active:               sc.Active,
			CrawlIntervalMinutes: sc.CrawlIntervalMinutes,
		})
	}

	fetchers := fetcher.NewRegistry()
	fetchers.Register("rss", fetcher.NewRSS(nil))
	fetchers.Register("html", fetcher.NewHTMLList(nil))

	var (
		db           *sql.DB
		scheduleRepo ports.ScheduleRepository
		batchRepo    ports.BatchJobRepository
		articleStore ports.ArticleStore
	)
	if cfg.Database.DSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		scheduleRepo = storage.NewPostgresScheduleRepository(db)
		batchRepo = storage.NewPostgresBatchJobRepository(db)
		articleStore = storage.NewPostgresArticleStore(db)
	} else {
		scheduleRepo = storage.NewMemoryScheduleRepository()
		batchRepo = storage.NewMemoryBatchJobRepository()
		articleStore = storage.NewMemoryArticleStore()
	}

	var dedupStore ports.DedupStore
	if cfg.Redis.Addr != "" {
		dedupStore = dedup.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr}))
	} else {
		dedupStore = dedup.NewMemoryStore()
	}
	gate := dedup.NewGate(dedupStore, articleStore)

	var stage *refine.Stage
	if cfg.Refiner.APIKey != "" {
		refiner := llm.NewOpenAIRefiner(cfg.Refiner)
		stage = refine.NewStage(refiner, cfg.Refiner.CallTimeout(), cfg.Refiner.InjectKeywords,
			logging.Component(baseLogger, "refine"))
	}

	orchestrator := crawl.NewOrchestrator(crawl.OrchestratorDeps{
		Registry:   registry,
		Fetcher:    fetchers,
		Gate:       gate,
		Stage:      stage,
		Tracker:    crawl.NewTracker(),
		Store:      articleStore,
		RunTimeout: cfg.Crawl.RunTimeout(),
		Logger:     logging.Component(baseLogger, "crawl"),
	})

	schedules := schedule.NewManager(scheduleRepo, scheduler.NewCronEvaluator(), orchestrator,
		logging.Component(baseLogger, "schedule"))

	var publisher ports.Publisher
	if cfg.Publish.WebhookURL != "" {
		publisher = publish.NewWebhookPublisher(cfg.Publish.WebhookURL, cfg.Publish.WebhookToken)
	}
	processor := batch.NewArticleProcessor(articleStore, stage, publisher)
	batches := batch.NewManager(batchRepo, processor, cfg.Batch.Concurrency,
		logging.Component(baseLogger, "batch"))

	server := api.NewServer(orchestrator, schedules, batches, nil,
		logging.Component(baseLogger, "api"))

	return &Application{
		cfg:       cfg,
		server:    server,
		schedules: schedules,
		db:        db,
		logger:    baseLogger,
	}, nil
}

// Run starts the schedule loop and blocks serving HTTP.
func (a *Application) Run(ctx context.Context) error {
	a.schedules.Start(ctx)
	defer a.schedules.Stop()

	a.logger.Info("listening", "addr", a.cfg.HTTP.Addr)
	return a.server.Run(a.cfg.HTTP.Addr)
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
