package domain

import "time"

// RunStatus enumerates the per-language run states. Transitions are monotonic:
// pending -> crawling -> (polishing) -> completed | failed, no way back.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunCrawling  RunStatus = "crawling"
	RunPolishing RunStatus = "polishing"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s RunStatus) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// Refinement sub-stage labels surfaced through RunProgress.RefineStage.
const (
	StageRewriteTitle   = "rewriting title"
	StageRewriteContent = "rewriting content"
	StageRewriteSummary = "rewriting summary"
	StageGenerateSEO    = "generating SEO"
	StageInjectKeyword  = "injecting keyword"
)

// RunProgress is the progress slot for one language within one run. It is
// owned exclusively by the progress tracker; everyone else reads snapshots.
type RunProgress struct {
	RunID               string
	Language            string
	Status              RunStatus
	CurrentSource       string
	CurrentArticleTitle string
	ArticlesFound       int
	ArticlesProcessed   int
	ArticlesRefined     int
	RefineStage         string
	Error               string
	StartedAt           time.Time
	UpdatedAt           time.Time
}
