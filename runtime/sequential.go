package runtime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dexfetch/dexfetch/types"
)

// RunSequential processes the items in order, one at a time, sleeping
// the fixed inter-item delay between items (no delay after the last).
// Per-item failures are recorded, never propagated: one failing item
// does not stop the rest. Re-runs are idempotent: items with valid
// outputs are skipped without a network call.
func (r *Runner) RunSequential(ctx context.Context) *types.RunSummary {
	start := time.Now()
	sum := types.NewRunSummary(r.runID, types.ModeSequential, start)

	for i, item := range r.config.Items {
		if ctx.Err() != nil {
			r.record(sum, types.ItemResult{
				Item: item, State: types.StateFailed,
				Reason: types.ReasonCanceled, Err: ctx.Err().Error(),
			})
			continue
		}

		r.board.Set(item, types.StateRunning)
		res := r.processItem(ctx, item)
		r.record(sum, res)

		r.logger.WithItem(item).Info("item finished",
			zap.String("state", string(res.State)),
			zap.Int("attempts", res.Attempts),
		)

		if i < len(r.config.Items)-1 && r.config.ItemDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(r.config.ItemDelay):
			}
		}
	}

	sum.Duration = time.Since(start)
	return sum
}
