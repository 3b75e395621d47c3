package refine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

const (
	defaultCallTimeout = 30 * time.Second
	retryBackoff       = 500 * time.Millisecond
	maxRetries         = 1
)

// ProgressFunc receives sub-stage labels as the stage works through one
// article.
type ProgressFunc func(stage string)

// Stage turns a RawArticle into a RefinedArticle through a sequence of
// refiner calls: title, content, summary, SEO title/description and an
// optional keyword pass. A failed article is dropped, never the run.
type Stage struct {
	refiner        ports.Refiner
	callTimeout    time.Duration
	injectKeywords bool
	logger         *slog.Logger
}

// NewStage wires the refiner backend.
func NewStage(refiner ports.Refiner, callTimeout time.Duration, injectKeywords bool, logger *slog.Logger) *Stage {
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	return &Stage{
		refiner:        refiner,
		callTimeout:    callTimeout,
		injectKeywords: injectKeywords,
		logger:         logger,
	}
}

// Refine rewrites one article for the primary language and stamps the full
// target language set. report may be nil.
func (s *Stage) Refine(ctx context.Context, article domain.RawArticle, targets []string, report ProgressFunc) (domain.RefinedArticle, error) {
	primary := article.Language
	if len(targets) > 0 {
		primary = targets[0]
	}
	notify := func(stage string) {
		if report != nil {
			report(stage)
		}
	}

	notify(domain.StageRewriteTitle)
	title, err := s.call(ctx, article.Title, primary, ports.RefineTitle)
	if err != nil {
		return domain.RefinedArticle{}, fmt.Errorf("rewrite title: %w", err)
	}

	notify(domain.StageRewriteContent)
	content, err := s.call(ctx, article.Content, primary, ports.RefineContent)
	if err != nil {
		return domain.RefinedArticle{}, fmt.Errorf("rewrite content: %w", err)
	}

	notify(domain.StageRewriteSummary)
	summarySource := article.Summary
	if summarySource == "" {
		summarySource = article.Content
	}
	summary, err := s.call(ctx, summarySource, primary, ports.RefineSummary)
	if err != nil {
		return domain.RefinedArticle{}, fmt.Errorf("rewrite summary: %w", err)
	}

	notify(domain.StageGenerateSEO)
	seoTitle, err := s.call(ctx, title, primary, ports.RefineSEOTitle)
	if err != nil {
		return domain.RefinedArticle{}, fmt.Errorf("generate seo title: %w", err)
	}
	seoDescription, err := s.call(ctx, summary, primary, ports.RefineSEODescription)
	if err != nil {
		return domain.RefinedArticle{}, fmt.Errorf("generate seo description: %w", err)
	}

	if s.injectKeywords {
		notify(domain.StageInjectKeyword)
		content = s.injectKeyword(ctx, content, primary)
	}

	refined := domain.RefinedArticle{
		RawArticle:      article,
		SEOTitle:        seoTitle,
		SEODescription:  seoDescription,
		RefinedAt:       time.Now().UTC(),
		RefinementModel: s.refiner.Model(),
		TargetLanguages: append([]string(nil), targets...),
	}
	refined.Title = title
	refined.Content = content
	refined.Summary = summary
	return refined, nil
}

// injectKeyword appends the relevance keyword only when the content does not
// already carry it. A keyword failure is not worth dropping the article over.
func (s *Stage) injectKeyword(ctx context.Context, content, language string) string {
	keyword, err := s.call(ctx, content, language, ports.RefineKeyword)
	if err != nil {
		s.warn("keyword generation failed", "error", err)
		return content
	}
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return content
	}
	if strings.Contains(strings.ToLower(content), strings.ToLower(keyword)) {
		return content
	}
	return content + "\n\n" + keyword
}

// call runs one refiner invocation with a bounded timeout and a single
// constant-backoff retry.
func (s *Stage) call(ctx context.Context, text, language string, kind ports.RefineKind) (string, error) {
	var result string

	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		defer cancel()

		out, err := s.refiner.Refine(callCtx, text, language, kind)
		if err != nil {
			return err
		}
		result = out
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryBackoff), maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("refine %s: %w", kind, err)
	}
	return result, nil
}

func (s *Stage) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
