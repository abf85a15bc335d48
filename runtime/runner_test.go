package runtime

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dexfetch/dexfetch/fetch"
	"github.com/dexfetch/dexfetch/store"
	"github.com/dexfetch/dexfetch/types"
)

// dexHandler serves record bodies for known items and counts requests
// per item. Unknown items get 404.
type dexHandler struct {
	known map[string]int64 // item -> id
	hits  atomic.Int64
	// failFirst returns 500 for the first N requests per item.
	failFirst map[string]*atomic.Int64
	// active tracks concurrently in-flight requests and the max seen.
	active    atomic.Int64
	maxActive atomic.Int64
}

func newDexHandler(items ...string) *dexHandler {
	h := &dexHandler{known: make(map[string]int64), failFirst: make(map[string]*atomic.Int64)}
	for i, it := range items {
		h.known[it] = int64(i + 1)
	}
	return h
}

func (h *dexHandler) failures(item string, n int64) {
	c := &atomic.Int64{}
	c.Store(n)
	h.failFirst[item] = c
}

func (h *dexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.hits.Add(1)
	cur := h.active.Add(1)
	defer h.active.Add(-1)
	for {
		prev := h.maxActive.Load()
		if cur <= prev || h.maxActive.CompareAndSwap(prev, cur) {
			break
		}
	}
	// Hold the request briefly so concurrency overlaps are observable.
	time.Sleep(10 * time.Millisecond)

	item := strings.TrimPrefix(r.URL.Path, "/")
	id, ok := h.known[item]
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if c, ok := h.failFirst[item]; ok && c.Add(-1) >= 0 {
		http.Error(w, "upstream hiccup", http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, `{"id":%d,"name":%q,"height":7,"weight":69,"types":[{"slot":1,"type":{"name":"grass"}}]}`, id, item)
}

type testRig struct {
	handler *dexHandler
	store   *store.FSStore
	runner  *Runner
}

func newTestRig(t *testing.T, handler *dexHandler, cfg BatchConfig) *testRig {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	client := fetch.NewClient(fetch.Config{
		Endpoint: srv.URL,
		Timeout:  5 * time.Second,
		TempDir:  t.TempDir(),
	})

	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}
	}

	runner, err := NewRunner(RunnerOptions{
		RunID:  "run-test",
		Config: cfg,
		Client: client,
		Store:  st,
	})
	if err != nil {
		t.Fatal(err)
	}

	return &testRig{handler: handler, store: st, runner: runner}
}

var starterItems = []types.Item{"bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon"}

func TestRunSequential_AllSucceed(t *testing.T) {
	h := newDexHandler("bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon")
	rig := newTestRig(t, h, BatchConfig{Items: starterItems})

	sum := rig.runner.RunSequential(t.Context())

	if sum.Succeeded != 5 || sum.Failed != 0 || sum.Skipped != 0 {
		t.Errorf("summary = %d/%d/%d, want 5 succeeded, 0 failed, 0 skipped",
			sum.Succeeded, sum.Failed, sum.Skipped)
	}
	if sum.MeanAttempts() != 1.0 {
		t.Errorf("MeanAttempts = %v, want 1", sum.MeanAttempts())
	}

	// Every output must exist and independently validate.
	for _, it := range starterItems {
		if _, err := store.ReadValid(t.Context(), rig.store, it); err != nil {
			t.Errorf("output for %s does not validate: %v", it, err)
		}
	}
}

func TestRunSequential_SkipsValidOutputsWithoutNetworkCall(t *testing.T) {
	h := newDexHandler("bulbasaur", "ivysaur")
	rig := newTestRig(t, h, BatchConfig{Items: []types.Item{"bulbasaur", "ivysaur"}})

	first := rig.runner.RunSequential(t.Context())
	if first.Succeeded != 2 {
		t.Fatalf("first run succeeded = %d, want 2", first.Succeeded)
	}
	hitsAfterFirst := h.hits.Load()

	// Fresh runner over the same store: everything skips, zero fetches.
	rerun, err := NewRunner(RunnerOptions{
		RunID:  "run-test-2",
		Config: BatchConfig{Items: []types.Item{"bulbasaur", "ivysaur"}, Retry: RetryConfig{MaxAttempts: 3, Delay: time.Millisecond}},
		Client: rig.runner.client,
		Store:  rig.store,
	})
	if err != nil {
		t.Fatal(err)
	}

	sum := rerun.RunSequential(t.Context())
	if sum.Skipped != 2 || sum.Succeeded != 0 {
		t.Errorf("rerun summary = %d skipped / %d succeeded, want 2/0", sum.Skipped, sum.Succeeded)
	}
	if got := h.hits.Load(); got != hitsAfterFirst {
		t.Errorf("rerun performed %d network calls, want 0", got-hitsAfterFirst)
	}
}

func TestRunSequential_StaleInvalidOutputRefetched(t *testing.T) {
	h := newDexHandler("bulbasaur")
	rig := newTestRig(t, h, BatchConfig{Items: []types.Item{"bulbasaur"}})

	// Seed a stale, unparseable output.
	if err := rig.store.CommitRecord(t.Context(), "bulbasaur", []byte("{corrupt")); err != nil {
		t.Fatal(err)
	}

	sum := rig.runner.RunSequential(t.Context())
	if sum.Succeeded != 1 || sum.Skipped != 0 {
		t.Errorf("summary = %d succeeded / %d skipped, want 1/0", sum.Succeeded, sum.Skipped)
	}
	if _, err := store.ReadValid(t.Context(), rig.store, "bulbasaur"); err != nil {
		t.Errorf("output does not validate after refetch: %v", err)
	}
}

func TestRunSequential_NotFoundSingleAttempt(t *testing.T) {
	h := newDexHandler("bulbasaur")
	rig := newTestRig(t, h, BatchConfig{
		Items: []types.Item{"invalidpokemon123"},
		Retry: RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
	})

	sum := rig.runner.RunSequential(t.Context())

	if sum.Failed != 1 {
		t.Fatalf("failed = %d, want 1", sum.Failed)
	}
	res := sum.Results[0]
	if res.Reason != types.ReasonNotFound {
		t.Errorf("Reason = %q, want not_found", res.Reason)
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d, want exactly 1 (fail fast)", res.Attempts)
	}
	if got := h.hits.Load(); got != 1 {
		t.Errorf("network calls = %d, want 1", got)
	}
}

func TestRunSequential_TransientFailureRetriesThenSucceeds(t *testing.T) {
	h := newDexHandler("bulbasaur")
	h.failures("bulbasaur", 2) // first two attempts 500, third succeeds
	rig := newTestRig(t, h, BatchConfig{
		Items: []types.Item{"bulbasaur"},
		Retry: RetryConfig{MaxAttempts: 3, Delay: time.Millisecond},
	})

	sum := rig.runner.RunSequential(t.Context())
	if sum.Succeeded != 1 {
		t.Fatalf("succeeded = %d, want 1 (results: %+v)", sum.Succeeded, sum.Results)
	}
	if sum.Results[0].Attempts != 3 {
		t.Errorf("attempts = %d, want 3", sum.Results[0].Attempts)
	}
}

func TestRunSequential_OneFailureDoesNotStopBatch(t *testing.T) {
	h := newDexHandler("bulbasaur", "venusaur")
	rig := newTestRig(t, h, BatchConfig{
		Items: []types.Item{"bulbasaur", "missingno", "venusaur"},
		Retry: RetryConfig{MaxAttempts: 2, Delay: time.Millisecond},
	})

	sum := rig.runner.RunSequential(t.Context())
	if sum.Succeeded != 2 || sum.Failed != 1 {
		t.Errorf("summary = %d succeeded / %d failed, want 2/1", sum.Succeeded, sum.Failed)
	}
}
