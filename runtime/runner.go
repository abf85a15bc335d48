package runtime

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dexfetch/dexfetch/fetch"
	"github.com/dexfetch/dexfetch/log"
	"github.com/dexfetch/dexfetch/metrics"
	"github.com/dexfetch/dexfetch/store"
	"github.com/dexfetch/dexfetch/types"
)

// Concurrency bounds for the parallel runner.
const (
	DefaultParallel = 3
	MaxParallel     = 10
)

// DefaultItemDelay is the sequential runner's inter-item delay.
const DefaultItemDelay = time.Second

// BatchConfig configures one batch run over a fixed item list.
type BatchConfig struct {
	// Items is the ordered, fixed work list.
	Items []types.Item
	// Retry bounds the per-item retry controller.
	Retry RetryConfig
	// ItemDelay is the sequential runner's fixed delay between items
	// (none after the last).
	ItemDelay time.Duration
	// Parallel is the worker bound for the parallel runner,
	// clamped to [1, MaxParallel]. Zero uses DefaultParallel.
	Parallel int
}

// Workers returns the effective clamped concurrency bound.
func (c BatchConfig) Workers() int {
	p := c.Parallel
	if p <= 0 {
		p = DefaultParallel
	}
	if p > MaxParallel {
		p = MaxParallel
	}
	return p
}

// Runner executes batch runs. The sequential and parallel runners share
// one per-item pipeline (skip check, stale removal, retry controller)
// and one result aggregation; only scheduling differs.
type Runner struct {
	runID    string
	config   BatchConfig
	client   *fetch.Client
	store    store.Store
	logger   *log.Logger
	board    *Board
	coll     *metrics.Collector
	failures *FailureLog
}

// RunnerOptions carries the collaborators for a Runner.
type RunnerOptions struct {
	RunID     string
	Config    BatchConfig
	Client    *fetch.Client
	Store     store.Store
	Logger    *log.Logger // nil uses a no-op logger
	Collector *metrics.Collector
	Failures  *FailureLog // optional durable failure log
}

// NewRunner creates a batch runner. Returns an error if the item list
// is empty or contains invalid names.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := types.ValidateItems(opts.Config.Items); err != nil {
		return nil, err
	}
	if opts.Client == nil || opts.Store == nil {
		return nil, errors.New("runner requires a fetch client and a store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}

	return &Runner{
		runID:    opts.RunID,
		config:   opts.Config,
		client:   opts.Client,
		store:    opts.Store,
		logger:   logger,
		board:    NewBoard(opts.Config.Items),
		coll:     opts.Collector,
		failures: opts.Failures,
	}, nil
}

// Board exposes the live progress board for monitors.
func (r *Runner) Board() *Board { return r.board }

// fetchOnce performs one complete attempt: GET to a temp file, validate,
// commit to the store. The temp file is removed on every outcome so a
// failed attempt leaves no scratch behind for the next one.
func (r *Runner) fetchOnce(ctx context.Context, item types.Item) error {
	tmp, err := r.client.Get(ctx, item)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	_, data, err := fetch.ValidateFile(tmp, item)
	if err != nil {
		return err
	}

	if err := r.store.CommitRecord(ctx, item, data); err != nil {
		r.coll.IncStoreCommitFailure()
		return err
	}
	r.coll.IncStoreCommit()
	return nil
}

// processItem runs the full per-item pipeline and returns the terminal
// result. An existing valid output short-circuits to Skipped with no
// network call; a stale invalid output is removed before fetching.
func (r *Runner) processItem(ctx context.Context, item types.Item) types.ItemResult {
	ilog := r.logger.WithItem(item)

	if _, err := store.ReadValid(ctx, r.store, item); err == nil {
		ilog.Debug("output already valid, skipping")
		return types.ItemResult{Item: item, State: types.StateSkipped}
	} else if !errors.Is(err, store.ErrNoRecord) {
		// Present but invalid: remove so a failed run cannot leave it.
		ilog.Warn("removing stale invalid output", zap.Error(err))
		if rmErr := r.store.Remove(ctx, item); rmErr != nil {
			return types.ItemResult{
				Item: item, State: types.StateFailed,
				Reason: types.ReasonStorage, Err: rmErr.Error(),
			}
		}
	}

	res := RunWithRetry(ctx, item, r.fetchOnce, r.config.Retry, ilog, r.coll, r.failures)
	if res.State == types.StateFailed {
		r.failures.Record(res)
	}
	return res
}

// record tallies a terminal result on the board, metrics, and summary.
func (r *Runner) record(sum *types.RunSummary, res types.ItemResult) {
	r.board.Set(res.Item, res.State)
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
