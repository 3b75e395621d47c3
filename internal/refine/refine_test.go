package refine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

type scriptedRefiner struct {
	// failuresLeft[kind] counts how many calls of that kind still fail.
	failuresLeft map[ports.RefineKind]int
	keyword      string
	calls        []ports.RefineKind
}

func (r *scriptedRefiner) Refine(_ context.Context, text, _ string, kind ports.RefineKind) (string, error) {
	r.calls = append(r.calls, kind)
	if left := r.failuresLeft[kind]; left > 0 {
		r.failuresLeft[kind] = left - 1
		return "", fmt.Errorf("transient upstream error")
	}
	if kind == ports.RefineKeyword {
		return r.keyword, nil
	}
	return "polished " + text, nil
}

func (r *scriptedRefiner) Model() string { return "scripted" }

func sampleArticle() domain.RawArticle {
	return domain.RawArticle{
		OriginID: "src:1",
		Title:    "raw title",
		Content:  "raw content",
		Summary:  "raw summary",
		Language: "en",
		SourceID: "src",
	}
}

func TestRefineRewritesAllFields(t *testing.T) {
	t.Parallel()

	refiner := &scriptedRefiner{}
	stage := NewStage(refiner, time.Second, false, nil)

	var stages []string
	refined, err := stage.Refine(context.Background(), sampleArticle(), []string{"en", "zh"}, func(s string) {
		stages = append(stages, s)
	})
	if err != nil {
		t.Fatalf("refine returned error: %v", err)
	}

	if refined.Title != "polished raw title" {
		t.Fatalf("unexpected title: %q", refined.Title)
	}
	if refined.Content != "polished raw content" {
		t.Fatalf("unexpected content: %q", refined.Content)
	}
	if refined.Summary != "polished raw summary" {
		t.Fatalf("unexpected summary: %q", refined.Summary)
	}
	if refined.SEOTitle == "" || refined.SEODescription == "" {
		t.Fatalf("missing seo fields: %+v", refined)
	}
	if refined.RefinedAt.IsZero() || refined.RefinementModel != "scripted" {
		t.Fatalf("missing refinement stamp: %+v", refined)
	}
	if len(refined.TargetLanguages) != 2 {
		t.Fatalf("unexpected target languages: %v", refined.TargetLanguages)
	}

	want := []string{
		domain.StageRewriteTitle,
		domain.StageRewriteContent,
		domain.StageRewriteSummary,
		domain.StageGenerateSEO,
	}
	if len(stages) != len(want) {
		t.Fatalf("expected stages %v, got %v", want, stages)
	}
	for i, s := range want {
		if stages[i] != s {
			t.Fatalf("stage %d: expected %q, got %q", i, s, stages[i])
		}
	}
}

func TestRefineRetriesOnceThenSucceeds(t *testing.T) {
	t.Parallel()

	refiner := &scriptedRefiner{failuresLeft: map[ports.RefineKind]int{ports.RefineContent: 1}}
	stage := NewStage(refiner, time.Second, false, nil)

	refined, err := stage.Refine(context.Background(), sampleArticle(), []string{"en"}, nil)
	if err != nil {
		t.Fatalf("expected retry to recover, got: %v", err)
	}
	if refined.Content != "polished raw content" {
		t.Fatalf("unexpected content after retry: %q", refined.Content)
	}

	contentCalls := 0
	for _, kind := range refiner.calls {
		if kind == ports.RefineContent {
			contentCalls++
		}
	}
	if contentCalls != 2 {
		t.Fatalf("expected 2 content calls, got %d", contentCalls)
	}
}

func TestRefineFailsAfterRetryExhausted(t *testing.T) {
	t.Parallel()

	refiner := &scriptedRefiner{failuresLeft: map[ports.RefineKind]int{ports.RefineTitle: 2}}
	stage := NewStage(refiner, time.Second, false, nil)

	_, err := stage.Refine(context.Background(), sampleArticle(), []string{"en"}, nil)
	if err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if !strings.Contains(err.Error(), "rewrite title") {
		t.Fatalf("expected the failed sub-stage named, got: %v", err)
	}
}

func TestKeywordInjectedWhenAbsent(t *testing.T) {
	t.Parallel()

	refiner := &scriptedRefiner{keyword: "blockchain"}
	stage := NewStage(refiner, time.Second, true, nil)

	refined, err := stage.Refine(context.Background(), sampleArticle(), []string{"en"}, nil)
	if err != nil {
		t.Fatalf("refine returned error: %v", err)
	}
	if !strings.HasSuffix(refined.Content, "\n\nblockchain") {
		t.Fatalf("expected keyword appended, got: %q", refined.Content)
	}
}

func TestKeywordSkippedWhenAlreadyPresent(t *testing.T) {
	t.Parallel()

	refiner := &scriptedRefiner{keyword: "Content"}
	stage := NewStage(refiner, time.Second, true, nil)

	refined, err := stage.Refine(context.Background(), sampleArticle(), []string{"en"}, nil)
	if err != nil {
		t.Fatalf("refine returned error: %v", err)
	}
	if refined.Content != "polished raw content" {
		t.Fatalf("expected content untouched, got: %q", refined.Content)
	}
}

func TestKeywordFailureKeepsArticle(t *testing.T) {
	t.Parallel()

	refiner := &scriptedRefiner{failuresLeft: map[ports.RefineKind]int{ports.RefineKeyword: 2}}
	stage := NewStage(refiner, time.Second, true, nil)

	refined, err := stage.Refine(context.Background(), sampleArticle(), []string{"en"}, nil)
	if err != nil {
		t.Fatalf("expected keyword failure to be absorbed, got: %v", err)
	}
	if refined.Content != "polished raw content" {
		t.Fatalf("unexpected content: %q", refined.Content)
	}
}

func TestSummaryFallsBackToContent(t *testing.T) {
	t.Parallel()

	refiner := &scriptedRefiner{}
	stage := NewStage(refiner, time.Second, false, nil)

	article := sampleArticle()
	article.Summary = ""
	refined, err := stage.Refine(context.Background(), article, []string{"en"}, nil)
	if err != nil {
		t.Fatalf("refine returned error: %v", err)
	}
	if refined.Summary != "polished raw content" {
		t.Fatalf("expected summary derived from content, got: %q", refined.Summary)
	}
}
