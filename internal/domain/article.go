package domain

import "time"

// RawArticle is a candidate article produced by a fetcher for one source.
// It is immutable once created; the dedup gate consumes it exactly once.
type RawArticle struct {
	OriginID string
	Title    string
	Content  string
	Summary  string
	Language string
	Category string
	SourceID string
	ImageURL string
	Author   string
}

// RefinedArticle is a RawArticle plus the output of the refinement stage.
// Re-refinement produces a new RefinedArticle, never mutates an old one.
type RefinedArticle struct {
	RawArticle
	SEOTitle        string
	SEODescription  string
	RefinedAt       time.Time
	RefinementModel string
	TargetLanguages []string
}
