package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// PostgresScheduleRepository persists schedule configs so they survive
// restarts.
type PostgresScheduleRepository struct {
	db *sql.DB
}

var _ ports.ScheduleRepository = (*PostgresScheduleRepository)(nil)

// NewPostgresScheduleRepository wires a sql.DB connection.
func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

// Create inserts a new schedule config.
func (r *PostgresScheduleRepository) Create(ctx context.Context, cfg domain.ScheduleConfig) error {
	query, args, err := psql.Insert("schedule_configs").
		Columns("id", "name", "active", "cron_expression", "source_ids", "target_languages",
			"quality_threshold", "max_articles_per_source", "last_run_at", "next_run_at",
			"total_runs", "successful_runs").
		Values(cfg.ID, cfg.Name, cfg.Active, cfg.CronExpression,
			pq.StringArray(cfg.SourceIDs), pq.StringArray(cfg.TargetLanguages),
			cfg.QualityThreshold, cfg.MaxArticlesPerSource, cfg.LastRunAt, cfg.NextRunAt,
			cfg.TotalRuns, cfg.SuccessfulRuns).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// Update replaces an existing schedule config.
func (r *PostgresScheduleRepository) Update(ctx context.Context, cfg domain.ScheduleConfig) error {
	query, args, err := psql.Update("schedule_configs").
		Set("name", cfg.Name).
		Set("active", cfg.Active).
		Set("cron_expression", cfg.CronExpression).
		Set("source_ids", pq.StringArray(cfg.SourceIDs)).
		Set("target_languages", pq.StringArray(cfg.TargetLanguages)).
		Set("quality_threshold", cfg.QualityThreshold).
		Set("max_articles_per_source", cfg.MaxArticlesPerSource).
		Set("last_run_at", cfg.LastRunAt).
		Set("next_run_at", cfg.NextRunAt).
		Set("total_runs", cfg.TotalRuns).
		Set("successful_runs", cfg.SuccessfulRuns).
		Where(squirrel.Eq{"id": cfg.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("schedule %s: %w", cfg.ID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a schedule config.
func (r *PostgresScheduleRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("schedule_configs").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("schedule %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Get returns one schedule config.
func (r *PostgresScheduleRepository) Get(ctx context.Context, id string) (domain.ScheduleConfig, error) {
	query, args, err := scheduleSelect().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("build select: %w", err)
	}

	cfg, err := scanSchedule(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScheduleConfig{}, fmt.Errorf("schedule %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.ScheduleConfig{}, fmt.Errorf("get schedule: %w", err)
	}
	return cfg, nil
}

// List returns every schedule config.
func (r *PostgresScheduleRepository) List(ctx context.Context) ([]domain.ScheduleConfig, error) {
	query, args, err := scheduleSelect().OrderBy("name").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var out []domain.ScheduleConfig
	for rows.Next() {
		cfg, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func scheduleSelect() squirrel.SelectBuilder {
	return psql.Select("id", "name", "active", "cron_expression", "source_ids",
		"target_languages", "quality_threshold", "max_articles_per_source",
		"last_run_at", "next_run_at", "total_runs", "successful_runs").
		From("schedule_configs")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (domain.ScheduleConfig, error) {
	var (
		cfg       domain.ScheduleConfig
		sourceIDs pq.StringArray
		languages pq.StringArray
		lastRunAt sql.NullTime
	)
	err := row.Scan(&cfg.ID, &cfg.Name, &cfg.Active, &cfg.CronExpression, &sourceIDs,
		&languages, &cfg.QualityThreshold, &cfg.MaxArticlesPerSource,
		&lastRunAt, &cfg.NextRunAt, &cfg.TotalRuns, &cfg.SuccessfulRuns)
	if err != nil {
		return domain.ScheduleConfig{}, err
	}
	cfg.SourceIDs = sourceIDs
	cfg.TargetLanguages = languages
	if lastRunAt.Valid {
		t := lastRunAt.Time
		cfg.LastRunAt = &t
	}
	return cfg, nil
}

// PostgresBatchJobRepository persists batch jobs so they survive restarts.
type PostgresBatchJobRepository struct {
	db *sql.DB
}

var _ ports.BatchJobRepository = (*PostgresBatchJobRepository)(nil)

// NewPostgresBatchJobRepository wires a sql.DB connection.
func NewPostgresBatchJobRepository(db *sql.DB) *PostgresBatchJobRepository {
	return &PostgresBatchJobRepository{db: db}
}

// Save upserts a job snapshot.
func (r *PostgresBatchJobRepository) Save(ctx context.Context, job domain.BatchJob) error {
	query, args, err := psql.Insert("batch_jobs").
		Columns("id", "operation", "target_ids", "status", "progress", "total_items",
			"processed_items", "success_count", "failed_count", "started_at",
			"completed_at", "error").
		Values(job.ID, job.Operation, pq.StringArray(job.TargetIDs), job.Status, job.Progress,
			job.TotalItems, job.ProcessedItems, job.SuccessCount, job.FailedCount,
			job.StartedAt, job.CompletedAt, job.Error).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			progress = EXCLUDED.progress,
			processed_items = EXCLUDED.processed_items,
			success_count = EXCLUDED.success_count,
			failed_count = EXCLUDED.failed_count,
			completed_at = EXCLUDED.completed_at,
			error = EXCLUDED.error`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert batch job: %w", err)
	}
	return nil
}

// Get returns one job.
func (r *PostgresBatchJobRepository) Get(ctx context.Context, id string) (domain.BatchJob, error) {
	query, args, err := batchSelect().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.BatchJob{}, fmt.Errorf("build select: %w", err)
	}

	job, err := scanBatchJob(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BatchJob{}, fmt.Errorf("batch job %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return domain.BatchJob{}, fmt.Errorf("get batch job: %w", err)
	}
	return job, nil
}

// Delete removes a job record.
func (r *PostgresBatchJobRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("batch_jobs").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete batch job: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("batch job %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns jobs, optionally filtered by status, newest first.
func (r *PostgresBatchJobRepository) List(ctx context.Context, status domain.BatchStatus) ([]domain.BatchJob, error) {
	builder := batchSelect().OrderBy("started_at DESC")
	if status != "" {
		builder = builder.Where(squirrel.Eq{"status": status})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batch jobs: %w", err)
	}
	defer rows.Close()

	var out []domain.BatchJob
	for rows.Next() {
		job, err := scanBatchJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch job: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func batchSelect() squirrel.SelectBuilder {
	return psql.Select("id", "operation", "target_ids", "status", "progress", "total_items",
		"processed_items", "success_count", "failed_count", "started_at", "completed_at", "error").
		From("batch_jobs")
}

func scanBatchJob(row rowScanner) (domain.BatchJob, error) {
	var (
		job         domain.BatchJob
		targetIDs   pq.StringArray
		completedAt sql.NullTime
	)
	err := row.Scan(&job.ID, &job.Operation, &targetIDs, &job.Status, &job.Progress,
		&job.TotalItems, &job.ProcessedItems, &job.SuccessCount, &job.FailedCount,
		&job.StartedAt, &completedAt, &job.Error)
	if err != nil {
		return domain.BatchJob{}, err
	}
	job.TargetIDs = targetIDs
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return job, nil
}

// PostgresArticleStore persists crawl output and backs dedup existence
// checks across runs.
type PostgresArticleStore struct {
	db *sql.DB
}

var _ ports.ArticleStore = (*PostgresArticleStore)(nil)

// NewPostgresArticleStore wires a sql.DB connection.
func NewPostgresArticleStore(db *sql.DB) *PostgresArticleStore {
	return &PostgresArticleStore{db: db}
}

// Exists reports whether an origin id was ever saved.
func (s *PostgresArticleStore) Exists(ctx context.Context, originID string) (bool, error) {
	query, args, err := psql.Select("1").From("articles").
		Where(squirrel.Eq{"origin_id": originID}).Limit(1).ToSql()
	if err != nil {
		return false, fmt.Errorf("build select: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists %s: %w", originID, err)
	}
	return true, nil
}

// Get returns one article; unrefined ones come back with a zero RefinedAt.
func (s *PostgresArticleStore) Get(ctx context.Context, originID string) (domain.RefinedArticle, error) {
	query, args, err := psql.Select("origin_id", "title", "content", "summary", "language",
		"category", "source_id", "image_url", "author", "seo_title", "seo_description",
		"refined_at", "refinement_model", "target_languages").
		From("articles").Where(squirrel.Eq{"origin_id": originID}).ToSql()
	if err != nil {
		return domain.RefinedArticle{}, fmt.Errorf("build select: %w", err)
	}

	var (
		article   domain.RefinedArticle
		refinedAt sql.NullTime
		languages pq.StringArray
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&article.OriginID, &article.Title, &article.Content, &article.Summary,
		&article.Language, &article.Category, &article.SourceID, &article.ImageURL,
		&article.Author, &article.SEOTitle, &article.SEODescription,
		&refinedAt, &article.RefinementModel, &languages)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RefinedArticle{}, fmt.Errorf("article %s: %w", originID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.RefinedArticle{}, fmt.Errorf("get article: %w", err)
	}
	if refinedAt.Valid {
		article.RefinedAt = refinedAt.Time
	}
	article.TargetLanguages = languages
	return article, nil
}

// SaveRaw upserts an unrefined article.
func (s *PostgresArticleStore) SaveRaw(ctx context.Context, article domain.RawArticle) error {
	return s.save(ctx, domain.RefinedArticle{RawArticle: article})
}

// SaveRefined upserts a refined article snapshot.
func (s *PostgresArticleStore) SaveRefined(ctx context.Context, article domain.RefinedArticle) error {
	return s.save(ctx, article)
}

func (s *PostgresArticleStore) save(ctx context.Context, article domain.RefinedArticle) error {
	var refinedAt *time.Time
	if !article.RefinedAt.IsZero() {
		refinedAt = &article.RefinedAt
	}

	query, args, err := psql.Insert("articles").
		Columns("origin_id", "title", "content", "summary", "language", "category",
			"source_id", "image_url", "author", "seo_title", "seo_description",
			"refined_at", "refinement_model", "target_languages").
		Values(article.OriginID, article.Title, article.Content, article.Summary,
			article.Language, article.Category, article.SourceID, article.ImageURL,
			article.Author, article.SEOTitle, article.SEODescription,
			refinedAt, article.RefinementModel, pq.StringArray(article.TargetLanguages)).
		Suffix(`ON CONFLICT (origin_id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			summary = EXCLUDED.summary,
			seo_title = EXCLUDED.seo_title,
			seo_description = EXCLUDED.seo_description,
			refined_at = EXCLUDED.refined_at,
			refinement_model = EXCLUDED.refinement_model,
			target_languages = EXCLUDED.target_languages`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert article %s: %w", article.OriginID, err)
	}
	return nil
}
