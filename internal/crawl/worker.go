package crawl

import (
	"context"
	"log/slog"

	"NewsRefinery/internal/dedup"
	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
	"NewsRefinery/internal/refine"
	"NewsRefinery/internal/sources"
)

// worker crawls one language: sources in priority order, per-source cap,
// global budget, dedup, optional refinement. One worker per language per
// run; the worker is the only writer of its progress slot.
type worker struct {
	language string
	registry *sources.Registry
	fetcher  ports.Fetcher
	gate     *dedup.Gate
	stage    *refine.Stage
	tracker  *Tracker
	logger   *slog.Logger
}

// run executes the language crawl and returns the accepted article list.
// Per-source and per-article failures are absorbed into progress state; the
// returned error is only ever run-fatal for this language.
func (w *worker) run(ctx context.Context, runID string, req Request) []domain.RefinedArticle {
	if err := w.tracker.Transition(runID, w.language, domain.RunCrawling); err != nil {
		return nil
	}

	admitted := w.crawlSources(ctx, runID, req)
	if admitted == nil {
		return nil
	}

	progress, err := w.tracker.Progress(runID, w.language)
	if err != nil {
		return nil
	}
	if progress.ArticlesFound == 0 {
		w.tracker.Fail(runID, w.language, "no articles found across all sources")
		return nil
	}

	results := w.refineAdmitted(ctx, runID, req, admitted)
	if results == nil {
		return nil
	}

	if err := w.tracker.Transition(runID, w.language, domain.RunCompleted); err != nil {
		return nil
	}
	return results
}

// crawlSources visits active sources in priority order and returns the
// admitted unique articles; nil means the worker failed fatally.
func (w *worker) crawlSources(ctx context.Context, runID string, req Request) []domain.RawArticle {
	srcs := w.selectSources(req)
	var admitted []domain.RawArticle

	for _, src := range srcs {
		if req.BudgetPerLanguage > 0 && len(admitted) >= req.BudgetPerLanguage {
			break
		}
		if ctx.Err() != nil {
			w.tracker.Fail(runID, w.language, "timeout")
			return nil
		}

		w.tracker.SetCurrent(runID, w.language, src.Name, "")
		articles, err := w.fetcher.Fetch(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				w.tracker.Fail(runID, w.language, "timeout")
				return nil
			}
			// One bad source must not abort the run.
			w.tracker.RecordError(runID, w.language, "fetch "+src.Name+": "+err.Error())
			w.warn("source fetch failed", "source", src.Name, "error", err)
			continue
		}

		w.tracker.AddFound(runID, w.language, len(articles))

		perSource := 0
		for _, article := range articles {
			if req.BudgetPerLanguage > 0 && len(admitted) >= req.BudgetPerLanguage {
				break
			}
			if req.MaxArticlesPerSource > 0 && perSource >= req.MaxArticlesPerSource {
				break
			}

			first, err := w.gate.Accept(ctx, article.OriginID)
			if err != nil {
				// Dedup backend down: fatal for this language only.
				w.tracker.Fail(runID, w.language, err.Error())
				return nil
			}
			if !first {
				continue
			}

			w.tracker.SetCurrent(runID, w.language, src.Name, article.Title)
			w.tracker.IncrProcessed(runID, w.language)
			admitted = append(admitted, article)
			perSource++
		}
	}

	if admitted == nil {
		admitted = []domain.RawArticle{}
	}
	return admitted
}

// refineAdmitted hands admitted articles to the refinement stage, or passes
// them through untouched when refinement is off; nil means a fatal timeout.
func (w *worker) refineAdmitted(ctx context.Context, runID string, req Request, admitted []domain.RawArticle) []domain.RefinedArticle {
	results := make([]domain.RefinedArticle, 0, len(admitted))

	if !req.Refine || w.stage == nil || len(admitted) == 0 {
		for _, article := range admitted {
			results = append(results, domain.RefinedArticle{RawArticle: article})
		}
		return results
	}

	if err := w.tracker.Transition(runID, w.language, domain.RunPolishing); err != nil {
		return results
	}

	for _, article := range admitted {
		if ctx.Err() != nil {
			w.tracker.Fail(runID, w.language, "timeout")
			return nil
		}

		w.tracker.SetCurrent(runID, w.language, article.SourceID, article.Title)
		refined, err := w.stage.Refine(ctx, article, req.Languages, func(stage string) {
			w.tracker.SetRefineStage(runID, w.language, stage)
		})
		if err != nil {
			if ctx.Err() != nil {
				w.tracker.Fail(runID, w.language, "timeout")
				return nil
			}
			// Dropped from the refined set; the run keeps going.
			w.tracker.RecordError(runID, w.language, "refine "+article.OriginID+": "+err.Error())
			w.warn("article refinement failed", "origin_id", article.OriginID, "error", err)
			continue
		}

		w.tracker.IncrRefined(runID, w.language)
		results = append(results, refined)
	}

	return results
}

// selectSources resolves the ordered source list, narrowed to the requested
// ids and the quality threshold.
func (w *worker) selectSources(req Request) []domain.Source {
	active := w.registry.ActiveForLanguage(w.language)
	if len(req.SourceIDs) == 0 && req.QualityThreshold <= 0 {
		return active
	}

	requested := make(map[string]struct{}, len(req.SourceIDs))
	for _, id := range req.SourceIDs {
		requested[id] = struct{}{}
	}

	selected := make([]domain.Source, 0, len(active))
	for _, src := range active {
		if len(requested) > 0 {
			if _, ok := requested[src.ID]; !ok {
				continue
			}
		}
		if req.QualityThreshold > 0 && src.QualityScore < req.QualityThreshold {
			continue
		}
		selected = append(selected, src)
	}
	return selected
}

func (w *worker) warn(msg string, args ...any) {
	if w.logger != nil {
		w.logger.Warn(msg, args...)
	}
}
