package types

import "time"

// ItemState is the terminal or in-progress state of one item.
type ItemState string

const (
	// StatePending means the item has not been admitted yet.
	StatePending ItemState = "pending"
	// StateRunning means a worker is actively fetching the item.
	StateRunning ItemState = "running"
	// StateSuccess means a validated record was committed.
	StateSuccess ItemState = "success"
	// StateSkipped means a valid record already existed; no fetch occurred.
	StateSkipped ItemState = "skipped"
	// StateFailed means all attempts were exhausted or a non-retryable
	// failure was hit.
	StateFailed ItemState = "failed"
)

// Terminal reports whether the state is a terminal state.
func (s ItemState) Terminal() bool {
	switch s {
	case StateSuccess, StateSkipped, StateFailed:
		return true
	default:
		return false
	}
}

// FailureReason classifies why an item failed. Closed set per the
// fetch error taxonomy.
type FailureReason string

const (
	// ReasonNotFound: upstream reports the item does not exist (non-retryable).
	ReasonNotFound FailureReason = "not_found"
	// ReasonTransport: DNS/connect/non-2xx transport failure (retryable).
	ReasonTransport FailureReason = "transport"
	// ReasonTimeout: request deadline exceeded (retryable).
	ReasonTimeout FailureReason = "timeout"
	// ReasonMalformed: body not parseable (retryable; may be transient).
	ReasonMalformed FailureReason = "malformed"
	// ReasonMissingFields: parseable but incomplete (retryable).
	ReasonMissingFields FailureReason = "missing_fields"
	// ReasonIdentityMismatch: upstream returned a different record than
	// requested (non-retryable; retrying would not change routing).
	ReasonIdentityMismatch FailureReason = "identity_mismatch"
	// ReasonStorage: record could not be committed to the store.
	ReasonStorage FailureReason = "storage"
	// ReasonCanceled: the run was canceled before the item finished.
	ReasonCanceled FailureReason = "canceled"
	// ReasonUnclassified: any other failure.
	ReasonUnclassified FailureReason = "unclassified"
)

// Retryable reports whether the reason is worth another attempt.
func (r FailureReason) Retryable() bool {
	switch r {
	case ReasonNotFound, ReasonIdentityMismatch, ReasonCanceled:
		return false
	default:
		return true
	}
}

// ItemResult is the terminal outcome for one item: success with an
// attempt count, skipped, or failed with a reason and the attempts made.
type ItemResult struct {
	Item     Item          `json:"item"`
	State    ItemState     `json:"state"`
	Attempts int           `json:"attempts"`
	Reason   FailureReason `json:"reason,omitempty"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// DurationMs is the item duration in milliseconds for JSON reports.
func (r ItemResult) DurationMs() int64 { return r.Duration.Milliseconds() }
