package crawl

import (
	"fmt"
	"sync"
	"time"

	"NewsRefinery/internal/domain"
)

// validTransitions is the per-language run state machine. Terminal states
// have no outgoing edges; there is no backward edge anywhere.
var validTransitions = map[domain.RunStatus][]domain.RunStatus{
	domain.RunPending:   {domain.RunCrawling, domain.RunFailed},
	domain.RunCrawling:  {domain.RunPolishing, domain.RunCompleted, domain.RunFailed},
	domain.RunPolishing: {domain.RunCompleted, domain.RunFailed},
	domain.RunCompleted: {},
	domain.RunFailed:    {},
}

func validateTransition(from, to domain.RunStatus) error {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("transition %s -> %s: %w", from, to, domain.ErrInvalidState)
}

// Tracker owns every RunProgress slot. Each language worker is the sole
// writer for its own slot; observers poll read-only snapshots. State is
// in-memory only; an in-flight run does not survive a restart.
type Tracker struct {
	mu   sync.RWMutex
	runs map[string]map[string]*domain.RunProgress
	now  func() time.Time
}

// NewTracker builds an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		runs: map[string]map[string]*domain.RunProgress{},
		now:  time.Now,
	}
}

// StartRun creates one pending slot per requested language.
func (t *Tracker) StartRun(runID string, languages []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slots := make(map[string]*domain.RunProgress, len(languages))
	for _, lang := range languages {
		ts := t.now()
		slots[lang] = &domain.RunProgress{
			RunID:     runID,
			Language:  lang,
			Status:    domain.RunPending,
			StartedAt: ts,
			UpdatedAt: ts,
		}
	}
	t.runs[runID] = slots
}

// Transition moves one language slot forward. Backward or out-of-terminal
// moves are rejected with ErrInvalidState.
func (t *Tracker) Transition(runID, language string, to domain.RunStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.slot(runID, language)
	if err != nil {
		return err
	}
	if err := validateTransition(slot.Status, to); err != nil {
		return err
	}
	slot.Status = to
	slot.UpdatedAt = t.now()
	return nil
}

// Fail marks the slot failed with a reason, from any non-terminal state.
// Failing an already terminal slot is a no-op so a late timeout sweep never
// overwrites a completed language.
func (t *Tracker) Fail(runID, language, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.slot(runID, language)
	if err != nil || slot.Status.Terminal() {
		return
	}
	slot.Status = domain.RunFailed
	slot.Error = reason
	slot.UpdatedAt = t.now()
}

// SetCurrent records the source and article the worker is looking at.
func (t *Tracker) SetCurrent(runID, language, source, articleTitle string) {
	t.mutate(runID, language, func(slot *domain.RunProgress) {
		slot.CurrentSource = source
		slot.CurrentArticleTitle = articleTitle
	})
}

// SetRefineStage records the refinement sub-stage label.
func (t *Tracker) SetRefineStage(runID, language, stage string) {
	t.mutate(runID, language, func(slot *domain.RunProgress) {
		slot.RefineStage = stage
	})
}

// AddFound increments the candidate counter by one fetch batch.
func (t *Tracker) AddFound(runID, language string, n int) {
	t.mutate(runID, language, func(slot *domain.RunProgress) {
		slot.ArticlesFound += n
	})
}

// IncrProcessed counts one admitted article.
func (t *Tracker) IncrProcessed(runID, language string) {
	t.mutate(runID, language, func(slot *domain.RunProgress) {
		slot.ArticlesProcessed++
	})
}

// IncrRefined counts one successfully refined article.
func (t *Tracker) IncrRefined(runID, language string) {
	t.mutate(runID, language, func(slot *domain.RunProgress) {
		slot.ArticlesRefined++
	})
}

// RecordError notes a non-fatal error (failed source, dropped article)
// without changing the slot state.
func (t *Tracker) RecordError(runID, language, msg string) {
	t.mutate(runID, language, func(slot *domain.RunProgress) {
		slot.Error = msg
	})
}

// Progress returns a copy of one language slot.
func (t *Tracker) Progress(runID, language string) (domain.RunProgress, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot, err := t.slot(runID, language)
	if err != nil {
		return domain.RunProgress{}, err
	}
	return *slot, nil
}

// Snapshot returns copies of every language slot for one run.
func (t *Tracker) Snapshot(runID string) ([]domain.RunProgress, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slots, ok := t.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}

	out := make([]domain.RunProgress, 0, len(slots))
	for _, slot := range slots {
		out = append(out, *slot)
	}
	return out, nil
}

func (t *Tracker) mutate(runID, language string, fn func(*domain.RunProgress)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot, err := t.slot(runID, language)
	if err != nil || slot.Status.Terminal() {
		return
	}
	fn(slot)
	slot.UpdatedAt = t.now()
}

func (t *Tracker) slot(runID, language string) (*domain.RunProgress, error) {
	slots, ok := t.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}
	slot, ok := slots[language]
	if !ok {
		return nil, fmt.Errorf("run %s language %s: %w", runID, language, domain.ErrNotFound)
	}
	return slot, nil
}
