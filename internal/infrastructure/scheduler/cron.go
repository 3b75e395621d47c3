package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"NewsRefinery/internal/domain"
	"NewsRefinery/internal/ports"
)

// CronEvaluator evaluates standard 5-field cron expressions.
type CronEvaluator struct {
	parser cron.Parser
}

var _ ports.CronEvaluator = (*CronEvaluator)(nil)

// NewCronEvaluator builds an evaluator for minute-granularity expressions.
func NewCronEvaluator() *CronEvaluator {
	return &CronEvaluator{
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}
}

// Validate rejects malformed expressions with ErrScheduleInvalid.
func (c *CronEvaluator) Validate(expr string) error {
	if _, err := c.parser.Parse(expr); err != nil {
		return fmt.Errorf("parse %q: %w: %v", expr, domain.ErrScheduleInvalid, err)
	}
	return nil
}

// Next returns the first activation strictly after the reference time.
func (c *CronEvaluator) Next(expr string, after time.Time) (time.Time, error) {
	schedule, err := c.parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q: %w: %v", expr, domain.ErrScheduleInvalid, err)
	}
	return schedule.Next(after), nil
}
