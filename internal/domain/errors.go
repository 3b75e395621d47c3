package domain

import "errors"

// Sentinel errors shared across the pipeline; callers match with errors.Is.
var (
	// ErrNotFound reports an operation referencing an unknown record id.
	ErrNotFound = errors.New("record not found")

	// ErrStorageUnavailable reports an unreachable backing store. The dedup
	// gate returns it instead of silently admitting duplicates.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidState reports an illegal operation on a terminal batch job
	// or run progress slot.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrScheduleInvalid reports a cron expression that failed validation at
	// create/update time.
	ErrScheduleInvalid = errors.New("invalid schedule expression")
)
