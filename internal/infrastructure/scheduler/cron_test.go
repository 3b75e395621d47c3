package scheduler

import (
	"errors"
	"testing"
	"time"

	"NewsRefinery/internal/domain"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	eval := NewCronEvaluator()

	valid := []string{"0 8 * * *", "*/15 * * * *", "30 9 * * 1-5", "0 0 1 * *"}
	for _, expr := range valid {
		if err := eval.Validate(expr); err != nil {
			t.Fatalf("expected %q valid, got: %v", expr, err)
		}
	}

	invalid := []string{"", "not a cron", "0 8 * *", "61 * * * *", "* * * * * *"}
	for _, expr := range invalid {
		if err := eval.Validate(expr); !errors.Is(err, domain.ErrScheduleInvalid) {
			t.Fatalf("expected %q rejected with ErrScheduleInvalid, got: %v", expr, err)
		}
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	eval := NewCronEvaluator()
	after := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		expr string
		want time.Time
	}{
		{"0 8 * * *", time.Date(2024, 1, 16, 8, 0, 0, 0, time.UTC)},
		{"30 9 * * *", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{"*/15 * * * *", time.Date(2024, 1, 15, 9, 15, 0, 0, time.UTC)},
		{"0 0 1 2 *", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, err := eval.Next(tc.expr, after)
		if err != nil {
			t.Fatalf("next %q: %v", tc.expr, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("next %q: expected %v, got %v", tc.expr, tc.want, got)
		}
	}
}

func TestNextInvalidExpression(t *testing.T) {
	t.Parallel()

	eval := NewCronEvaluator()
	if _, err := eval.Next("bogus", time.Now()); !errors.Is(err, domain.ErrScheduleInvalid) {
		t.Fatalf("expected ErrScheduleInvalid, got: %v", err)
	}
}
