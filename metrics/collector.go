// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single batch run. It is a
// leaf package with no internal dependencies. Counts are absorbed into
// the run report at completion.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of run metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Fetch lifecycle
	FetchAttempts  int64            `json:"fetch_attempts"`
	Retries        int64            `json:"retries"`
	FailuresByKind map[string]int64 `json:"failures_by_kind,omitempty"`

	// Items
	ItemsSucceeded int64 `json:"items_succeeded"`
	ItemsSkipped   int64 `json:"items_skipped"`
	ItemsFailed    int64 `json:"items_failed"`

	// Storage
	StoreCommits        int64 `json:"store_commits"`
	StoreCommitFailures int64 `json:"store_commit_failures"`

	// Dimensions (informational, set at construction)
	Mode           string `json:"mode"`
	StorageBackend string `json:"storage_backend"`
	RunID          string `json:"run_id"`
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe
// so callers without a collector need no guards.
type Collector struct {
	mu sync.Mutex

	fetchAttempts  int64
	retries        int64
	failuresByKind map[string]int64

	itemsSucceeded int64
	itemsSkipped   int64
	itemsFailed    int64

	storeCommits        int64
	storeCommitFailures int64

	mode           string
	storageBackend string
	runID          string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(mode, storageBackend, runID string) *Collector {
	return &Collector{
		failuresByKind: make(map[string]int64),
		mode:           mode,
		storageBackend: storageBackend,
		runID:          runID,
	}
}

// IncFetchAttempt records one fetch attempt.
func (c *Collector) IncFetchAttempt() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.fetchAttempts++
	c.mu.Unlock()
}

// IncRetry records a retry (any attempt after the first for an item).
func (c *Collector) IncRetry() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.retries++
	c.mu.Unlock()
}

// IncFailure records a classified attempt failure.
func (c *Collector) IncFailure(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.failuresByKind[kind]++
	c.mu.Unlock()
}

// IncItemSucceeded records a terminal item success.
func (c *Collector) IncItemSucceeded() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsSucceeded++
	c.mu.Unlock()
}

// IncItemSkipped records a terminal item skip.
func (c *Collector) IncItemSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsSkipped++
	c.mu.Unlock()
}

// IncItemFailed records a terminal item failure.
func (c *Collector) IncItemFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsFailed++
	c.mu.Unlock()
}

// IncStoreCommit records a successful record commit.
func (c *Collector) IncStoreCommit() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeCommits++
	c.mu.Unlock()
}

// IncStoreCommitFailure records a failed record commit.
func (c *Collector) IncStoreCommitFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.storeCommitFailures++
	c.mu.Unlock()
}

// Snapshot returns an immutable copy of all counters.
// Nil-receiver safe: returns a zero Snapshot.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.failuresByKind))
	for k, v := range c.failuresByKind {
		byKind[k] = v
	}

	return Snapshot{
		FetchAttempts:       c.fetchAttempts,
		Retries:             c.retries,
		FailuresByKind:      byKind,
		ItemsSucceeded:      c.itemsSucceeded,
		ItemsSkipped:        c.itemsSkipped,
		ItemsFailed:         c.itemsFailed,
		StoreCommits:        c.storeCommits,
		StoreCommitFailures: c.storeCommitFailures,
		Mode:                c.mode,
		StorageBackend:      c.storageBackend,
		RunID:               c.runID,
	}
}
