// Package fetch issues single bounded-timeout GETs against the upstream
// API and validates response bodies into records.
//
// This file defines the failure taxonomy. Sentinel errors classify each
// failure so the retry controller can use errors.Is for retry decisions
// rather than string matching.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/dexfetch/dexfetch/types"
)

// Sentinel errors for fetch failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrNotFound indicates upstream explicitly reports the item does
	// not exist (HTTP 404). Non-retryable.
	ErrNotFound = errors.New("item not found upstream")

	// ErrTransport indicates a DNS/connect/non-2xx transport failure.
	ErrTransport = errors.New("transport failure")

	// ErrTimeout indicates the request deadline was exceeded.
	ErrTimeout = errors.New("request timed out")

	// ErrMalformed indicates the body could not be parsed.
	ErrMalformed = errors.New("malformed response")

	// ErrMissingFields indicates a parseable body missing required fields.
	ErrMissingFields = errors.New("response missing required fields")

	// ErrIdentityMismatch indicates upstream returned a record whose
	// identifying field differs from the requested item. Non-retryable:
	// retrying would not change upstream's routing.
	ErrIdentityMismatch = errors.New("record identity mismatch")
)

// FetchError wraps an underlying error with fetch classification.
// It preserves the original error in the chain for errors.As inspection.
type FetchError struct {
	// Kind is the sentinel error for classification (e.g. ErrNotFound).
	Kind error
	// Op is the operation that failed ("get", "validate", "commit").
	Op string
	// Item is the item being fetched.
	Item types.Item
	// Err is the underlying error.
	Err error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Item, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Item, e.Kind)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *FetchError) Unwrap() error { return e.Err }

// Is reports whether the error matches the target sentinel.
func (e *FetchError) Is(target error) bool { return errors.Is(e.Kind, target) }

// NewFetchError creates a classified fetch error.
func NewFetchError(kind error, op string, item types.Item, err error) *FetchError {
	return &FetchError{Kind: kind, Op: op, Item: item, Err: err}
}

// Reason maps a fetch error to the closed FailureReason set consumed by
// run summaries and the failure log. Unclassified errors map to
// ReasonUnclassified; context cancellation maps to ReasonCanceled.
func Reason(err error) types.FailureReason {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return types.ReasonNotFound
	case errors.Is(err, ErrTimeout):
		return types.ReasonTimeout
	case errors.Is(err, ErrTransport):
		return types.ReasonTransport
	case errors.Is(err, ErrMalformed):
		return types.ReasonMalformed
	case errors.Is(err, ErrMissingFields):
		return types.ReasonMissingFields
	case errors.Is(err, ErrIdentityMismatch):
		return types.ReasonIdentityMismatch
	case errors.Is(err, context.Canceled):
		return types.ReasonCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return types.ReasonTimeout
	default:
		return types.ReasonUnclassified
	}
}

// classifyTransport maps a net/http client error to a sentinel.
// Timeouts are distinguished from other network failures because the
// retry delay is more likely to help them.
func classifyTransport(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return ErrTransport
}
