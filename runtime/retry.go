// Package runtime orchestrates batch fetch runs: a shared retry
// controller, a sequential runner, and a bounded-concurrency parallel
// runner over the same per-item pipeline.
package runtime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dexfetch/dexfetch/fetch"
	"github.com/dexfetch/dexfetch/log"
	"github.com/dexfetch/dexfetch/metrics"
	"github.com/dexfetch/dexfetch/types"
)

// Retry defaults.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 2 * time.Second
)

// RetryConfig bounds the retry controller.
type RetryConfig struct {
	// MaxAttempts is the attempt bound, including the first attempt.
	MaxAttempts int
	// Delay is the fixed sleep between attempts.
	Delay time.Duration
}

// withDefaults fills zero fields.
func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.Delay < 0 {
		c.Delay = DefaultRetryDelay
	}
	return c
}

// AttemptFunc performs one full fetch attempt for an item: GET,
// validate, commit. It must classify failures with the fetch sentinels.
type AttemptFunc func(ctx context.Context, item types.Item) error

// RunWithRetry drives AttemptFunc for attempt 1..MaxAttempts.
//
// The first success returns immediately with the attempt count.
// Failures classified non-retryable (not-found, identity mismatch)
// return immediately without consuming remaining attempts. All other classifications
// sleep the fixed delay (when attempts remain) and retry. Exhausting the
// bound returns the last classified reason with the attempts used.
//
// The logger is expected to carry item context already; every failed
// attempt is additionally appended to the failure log when one is set.
func RunWithRetry(ctx context.Context, item types.Item, attempt AttemptFunc, cfg RetryConfig, logger *log.Logger, coll *metrics.Collector, failures *FailureLog) types.ItemResult {
	cfg = cfg.withDefaults()
	start := time.Now()

	var lastReason types.FailureReason
	var lastErr error

	for i := 1; i <= cfg.MaxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return types.ItemResult{
				Item: item, State: types.StateFailed,
				Attempts: i - 1, Reason: types.ReasonCanceled,
				Err: err.Error(), Duration: time.Since(start),
			}
		}

		coll.IncFetchAttempt()
		if i > 1 {
			coll.IncRetry()
		}

		err := attempt(ctx, item)
		if err == nil {
			return types.ItemResult{
				Item: item, State: types.StateSuccess,
				Attempts: i, Duration: time.Since(start),
			}
		}

		lastErr = err
		lastReason = fetch.Reason(err)
		coll.IncFailure(string(lastReason))
		failures.RecordAttempt(item, i, lastReason, err)
		logger.Warn("fetch attempt failed",
			zap.Int("attempt", i),
			zap.String("reason", string(lastReason)),
			zap.Error(err),
		)

		if !lastReason.Retryable() {
			return types.ItemResult{
				Item: item, State: types.StateFailed,
				Attempts: i, Reason: lastReason,
				Err: err.Error(), Duration: time.Since(start),
			}
		}

		if i < cfg.MaxAttempts && cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return types.ItemResult{
					Item: item, State: types.StateFailed,
					Attempts: i, Reason: types.ReasonCanceled,
					Err: ctx.Err().Error(), Duration: time.Since(start),
				}
			case <-time.After(cfg.Delay):
			}
		}
	}

	return types.ItemResult{
		Item: item, State: types.StateFailed,
		Attempts: cfg.MaxAttempts, Reason: lastReason,
		Err: lastErr.Error(), Duration: time.Since(start),
	}
}
