package ports

import (
	"context"
	"time"

	"NewsRefinery/internal/domain"
)

// Fetcher pulls candidate articles from one configured source. May be RSS,
// scraping, or API-backed.
type Fetcher interface {
	Fetch(ctx context.Context, source domain.Source) ([]domain.RawArticle, error)
}

// RefineKind names the text fragment a refiner call rewrites.
type RefineKind string

const (
	RefineTitle          RefineKind = "title"
	RefineContent        RefineKind = "content"
	RefineSummary        RefineKind = "summary"
	RefineSEOTitle       RefineKind = "seo_title"
	RefineSEODescription RefineKind = "seo_description"
	RefineKeyword        RefineKind = "keyword"
)

// Refiner rewrites a text fragment for a target language via an AI backend.
type Refiner interface {
	Refine(ctx context.Context, text, targetLanguage string, kind RefineKind) (string, error)
	Model() string
}

// DedupStore backs the dedup gate. SetIfAbsent records the id and returns
// true only for the first caller, atomically.
type DedupStore interface {
	SetIfAbsent(ctx context.Context, originID string) (bool, error)
}

// ArticleStore persists crawl output and answers existence checks for dedup.
// Get returns unrefined articles as RefinedArticle values with a zero
// RefinedAt.
type ArticleStore interface {
	Exists(ctx context.Context, originID string) (bool, error)
	Get(ctx context.Context, originID string) (domain.RefinedArticle, error)
	SaveRaw(ctx context.Context, article domain.RawArticle) error
	SaveRefined(ctx context.Context, article domain.RefinedArticle) error
}

// Publisher pushes a refined article to an outbound channel. The publish
// outcome is the channel's real answer, never a simulated success rate.
type Publisher interface {
	Publish(ctx context.Context, article domain.RefinedArticle) error
}

// ScheduleRepository stores recurring run configurations durably.
type ScheduleRepository interface {
	Create(ctx context.Context, cfg domain.ScheduleConfig) error
	Update(ctx context.Context, cfg domain.ScheduleConfig) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (domain.ScheduleConfig, error)
	List(ctx context.Context) ([]domain.ScheduleConfig, error)
}

// BatchJobRepository stores batch jobs durably.
type BatchJobRepository interface {
	Save(ctx context.Context, job domain.BatchJob) error
	Get(ctx context.Context, id string) (domain.BatchJob, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, status domain.BatchStatus) ([]domain.BatchJob, error)
}

// CronEvaluator validates cron expressions and computes activation times.
type CronEvaluator interface {
	Validate(expr string) error
	Next(expr string, after time.Time) (time.Time, error)
}

// BatchProcessor executes one batch item. The outcome comes from the real
// collaborator (refinement or publish), never from a simulated success rate.
type BatchProcessor interface {
	Process(ctx context.Context, operation, targetID string) error
}
