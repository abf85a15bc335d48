// Package adapter defines the downstream notification boundary.
//
// Adapters publish batch completion events to downstream systems. The
// run command owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"time"

	"github.com/dexfetch/dexfetch/types"
)

// EventType is the event discriminant carried on every published event.
const EventType = "batch_completed"

// BatchCompletedEvent is the payload published when a batch run finishes.
type BatchCompletedEvent struct {
	EventType string `json:"event_type"` // always "batch_completed"
	RunID     string `json:"run_id"`
	Mode      string `json:"mode"`
	Outcome   string `json:"outcome"` // success, partial, failed

	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`

	SuccessRate float64 `json:"success_rate"`
	StoragePath string  `json:"storage_path"`
	Timestamp   string  `json:"timestamp"` // ISO 8601
	DurationMs  int64   `json:"duration_ms"`
}

// FromSummary builds the completion event for a finished run.
func FromSummary(sum *types.RunSummary, storagePath string) *BatchCompletedEvent {
	outcome := "success"
	switch {
	case sum.Failed > 0 && sum.Failed == sum.Total():
		outcome = "failed"
	case sum.Failed > 0:
		outcome = "partial"
	}

	return &BatchCompletedEvent{
		EventType:   EventType,
		RunID:       sum.RunID,
		Mode:        string(sum.Mode),
		Outcome:     outcome,
		Total:       sum.Total(),
		Succeeded:   sum.Succeeded,
		Skipped:     sum.Skipped,
		Failed:      sum.Failed,
		SuccessRate: sum.SuccessRate(),
		StoragePath: storagePath,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		DurationMs:  sum.Duration.Milliseconds(),
	}
}

// Adapter publishes batch completion events to a downstream system.
// Implementations must be safe for single-use per run.
type Adapter interface {
	// Publish sends a batch completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *BatchCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}
