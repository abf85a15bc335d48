package types

import "time"

// RunMode selects the batch scheduling model.
type RunMode string

const (
	// ModeSequential runs items one at a time with an inter-item delay.
	ModeSequential RunMode = "sequential"
	// ModeParallel runs items through a bounded worker pool.
	ModeParallel RunMode = "parallel"
)

// RunSummary aggregates per-item results at the end of a batch run.
// Computed once from the set of ItemResults; persisted only through the
// report file and the run history.
type RunSummary struct {
	RunID     string        `json:"run_id"`
	Mode      RunMode       `json:"mode"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"-"`

	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	// attempt bookkeeping for MeanAttempts; counts only items that
	// actually performed fetch attempts (skips excluded).
	attemptedItems int
	totalAttempts  int

	Results []ItemResult `json:"results"`
}

// NewRunSummary creates an empty summary for a run.
func NewRunSummary(runID string, mode RunMode, startedAt time.Time) *RunSummary {
	return &RunSummary{RunID: runID, Mode: mode, StartedAt: startedAt}
}

// Add records one item result.
func (s *RunSummary) Add(res ItemResult) {
	s.Results = append(s.Results, res)
	switch res.State {
	case StateSuccess:
		s.Succeeded++
	case StateSkipped:
		s.Skipped++
	case StateFailed:
		s.Failed++
	}
	if res.Attempts > 0 {
		s.attemptedItems++
		s.totalAttempts += res.Attempts
	}
}

// Total is the number of items processed.
func (s *RunSummary) Total() int { return s.Succeeded + s.Skipped + s.Failed }

// SuccessRate is the fraction of items that succeeded or were skipped,
// in [0, 1]. Zero items yields 0.
func (s *RunSummary) SuccessRate() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Succeeded+s.Skipped) / float64(total)
}

// MeanAttempts is the arithmetic mean of attempts across items that
// performed at least one fetch attempt. Zero such items yields 0.
func (s *RunSummary) MeanAttempts() float64 {
	if s.attemptedItems == 0 {
		return 0
	}
	return float64(s.totalAttempts) / float64(s.attemptedItems)
}
