package runtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dexfetch/dexfetch/types"
)

// RunParallel processes the items through a bounded worker pool: one
// goroutine per item, admitted through a semaphore channel sized to the
// concurrency bound, so at no point do more than Workers() items run
// concurrently. Workers publish state transitions to the board (single
// writer per item) and terminal results over a channel; the coordinator
// joins every launched worker before aggregating.
//
// Cancellation stops admission; items never admitted are recorded as
// canceled failures. Workers already running finish their current
// attempt and observe the cancellation at the next retry boundary.
func (r *Runner) RunParallel(ctx context.Context) *types.RunSummary {
	start := time.Now()
	sum := types.NewRunSummary(r.runID, types.ModeParallel, start)

	workers := r.config.Workers()
	sem := make(chan struct{}, workers)
	results := make(chan types.ItemResult, len(r.config.Items))

	var wg sync.WaitGroup
	launched := 0

	for _, item := range r.config.Items {
		// Admission: block until a worker slot frees or the run is canceled.
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			results <- types.ItemResult{
				Item: item, State: types.StateFailed,
				Reason: types.ReasonCanceled, Err: ctx.Err().Error(),
			}
			r.board.Set(item, types.StateFailed)
			continue
		}

		launched++
		wg.Add(1)
		go func(it types.Item) {
			defer wg.Done()
			defer func() { <-sem }()

			r.board.Set(it, types.StateRunning)
			res := r.processItem(ctx, it)
			r.board.Set(it, res.State)

			r.logger.WithItem(it).Info("worker finished",
				zap.String("state", string(res.State)),
				zap.Int("attempts", res.Attempts),
			)
			results <- res
		}(item)
	}

	wg.Wait()
	close(results)

	// Aggregate deterministically in launch order.
	byItem := make(map[types.Item]types.ItemResult, len(r.config.Items))
	for res := range results {
		byItem[res.Item] = res
	}
	for _, item := range r.config.Items {
		res, ok := byItem[item]
		if !ok {
			// Should not happen: every item produces exactly one result.
			res = types.ItemResult{Item: item, State: types.StateFailed, Reason: types.ReasonUnclassified}
		}
		// Board state for terminal results is already set by the worker;
		// only the summary needs the result here.
		sum.Add(res)
		switch res.State {
		case types.StateSuccess:
			r.coll.IncItemSucceeded()
		case types.StateSkipped:
			r.coll.IncItemSkipped()
		case types.StateFailed:
			r.coll.IncItemFailed()
		}
	}

	sum.Duration = time.Since(start)
	return sum
}
