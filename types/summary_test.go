package types

import (
	"math"
	"testing"
	"time"
)

func TestRunSummary_Aggregation(t *testing.T) {
	s := NewRunSummary("run-001", ModeSequential, time.Now())

	s.Add(ItemResult{Item: "bulbasaur", State: StateSuccess, Attempts: 1})
	s.Add(ItemResult{Item: "ivysaur", State: StateSuccess, Attempts: 3})
	s.Add(ItemResult{Item: "venusaur", State: StateSkipped})
	s.Add(ItemResult{Item: "missingno", State: StateFailed, Attempts: 2, Reason: ReasonTransport})

	if s.Succeeded != 2 || s.Skipped != 1 || s.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", s.Succeeded, s.Skipped, s.Failed)
	}
	if s.Total() != 4 {
		t.Errorf("Total = %d, want 4", s.Total())
	}
	if got, want := s.SuccessRate(), 0.75; math.Abs(got-want) > 1e-9 {
		t.Errorf("SuccessRate = %v, want %v", got, want)
	}
	// 1 + 3 + 2 attempts over 3 attempted items
	if got, want := s.MeanAttempts(), 2.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("MeanAttempts = %v, want %v", got, want)
	}
}

func TestRunSummary_Empty(t *testing.T) {
	s := NewRunSummary("run-002", ModeParallel, time.Now())
	if s.SuccessRate() != 0 {
		t.Errorf("SuccessRate on empty summary = %v, want 0", s.SuccessRate())
	}
	if s.MeanAttempts() != 0 {
		t.Errorf("MeanAttempts on empty summary = %v, want 0", s.MeanAttempts())
	}
}

func TestFailureReason_Retryable(t *testing.T) {
	nonRetryable := []FailureReason{ReasonNotFound, ReasonIdentityMismatch, ReasonCanceled}
	for _, r := range nonRetryable {
		if r.Retryable() {
			t.Errorf("%s.Retryable() = true, want false", r)
		}
	}
	retryable := []FailureReason{ReasonTransport, ReasonTimeout, ReasonMalformed, ReasonMissingFields, ReasonUnclassified}
	for _, r := range retryable {
		if !r.Retryable() {
			t.Errorf("%s.Retryable() = false, want true", r)
		}
	}
}

func TestItemState_Terminal(t *testing.T) {
	if StatePending.Terminal() || StateRunning.Terminal() {
		t.Error("pending/running must not be terminal")
	}
	if !StateSuccess.Terminal() || !StateSkipped.Terminal() || !StateFailed.Terminal() {
		t.Error("success/skipped/failed must be terminal")
	}
}
