package domain

import "time"

// ScheduleConfig is a recurring crawl configuration. NextRunAt is recomputed
// by the schedule manager on every create/update/completed run; the run
// counters are incremented only after a run reaches a terminal state.
type ScheduleConfig struct {
	ID                   string
	Name                 string
	Active               bool
	CronExpression       string
	SourceIDs            []string
	TargetLanguages      []string
	QualityThreshold     float64
	MaxArticlesPerSource int
	LastRunAt            *time.Time
	NextRunAt            time.Time
	TotalRuns            int
	SuccessfulRuns       int
}
