package domain

import "time"

// BatchStatus enumerates batch job states. A job is completed once every item
// was attempted; per-item failures never fail the job itself.
type BatchStatus string

const (
	BatchPending   BatchStatus = "pending"
	BatchRunning   BatchStatus = "running"
	BatchCompleted BatchStatus = "completed"
	BatchCancelled BatchStatus = "cancelled"
)

// Batch operations accepted by the batch job manager.
const (
	BatchOpRefine  = "refine"
	BatchOpPublish = "publish"
)

// BatchJob tracks a bulk operation over already-stored articles, decoupled
// from crawl runs. Mutated only by the batch job manager.
type BatchJob struct {
	ID             string
	Operation      string
	TargetIDs      []string
	Status         BatchStatus
	Progress       int // percent, 0-100
	TotalItems     int
	ProcessedItems int
	SuccessCount   int
	FailedCount    int
	StartedAt      time.Time
	CompletedAt    *time.Time
	Error          string
}
