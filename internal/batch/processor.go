package batch

import (
	"context"
	"fmt"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
	"NewsRefinery/internal/refine"
)

// ArticleProcessor executes batch items against stored articles: re-refine
// through the refinement stage, or publish through the outbound channel.
type ArticleProcessor struct {
	store     ports.ArticleStore
	stage     *refine.Stage
	publisher ports.Publisher
}

var _ ports.BatchProcessor = (*ArticleProcessor)(nil)

// NewArticleProcessor wires the collaborators; stage and publisher may be
// nil, which makes the matching operation fail per item.
func NewArticleProcessor(store ports.ArticleStore, stage *refine.Stage, publisher ports.Publisher) *ArticleProcessor {
	return &ArticleProcessor{store: store, stage: stage, publisher: publisher}
}

// Process runs one item. Re-refinement produces a new RefinedArticle and
// saves it; the stored original is never mutated in place.
func (p *ArticleProcessor) Process(ctx context.Context, operation, targetID string) error {
	article, err := p.store.Get(ctx, targetID)
	if err != nil {
		return err
	}

	switch operation {
	case domain.BatchOpRefine:
		if p.stage == nil {
			return fmt.Errorf("refine %s: no refiner configured", targetID)
		}
		targets := article.TargetLanguages
		if len(targets) == 0 {
			targets = []string{article.Language}
		}
		refined, err := p.stage.Refine(ctx, article.RawArticle, targets, nil)
		if err != nil {
			return fmt.Errorf("refine %s: %w", targetID, err)
		}
		return p.store.SaveRefined(ctx, refined)

	case domain.BatchOpPublish:
		if p.publisher == nil {
			return fmt.Errorf("publish %s: no publisher configured", targetID)
		}
		return p.publisher.Publish(ctx, article)

	default:
		return fmt.Errorf("unknown operation %q", operation)
	}
}
