package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dexfetch/dexfetch/store"
	"github.com/dexfetch/dexfetch/types"
)

func TestRunParallel_AllSucceed(t *testing.T) {
	h := newDexHandler("bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon")
	rig := newTestRig(t, h, BatchConfig{Items: starterItems, Parallel: 3})

	sum := rig.runner.RunParallel(t.Context())

	if sum.Succeeded != 5 || sum.Failed != 0 || sum.Skipped != 0 {
		t.Errorf("summary = %d/%d/%d, want 5/0/0", sum.Succeeded, sum.Failed, sum.Skipped)
	}
	for _, it := range starterItems {
		if _, err := store.ReadValid(t.Context(), rig.store, it); err != nil {
			t.Errorf("output for %s does not validate: %v", it, err)
		}
	}
	// Results are aggregated in launch order.
	for i, it := range starterItems {
		if sum.Results[i].Item != it {
			t.Errorf("Results[%d].Item = %q, want %q", i, sum.Results[i].Item, it)
		}
	}
}

func TestRunParallel_ConcurrencyBoundNeverExceeded(t *testing.T) {
	items := []types.Item{
		"bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon",
		"charizard", "squirtle", "wartortle", "blastoise", "caterpie",
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.String()
	}

	h := newDexHandler(names...)
	rig := newTestRig(t, h, BatchConfig{Items: items, Parallel: 3})

	sum := rig.runner.RunParallel(t.Context())
	if sum.Succeeded != len(items) {
		t.Fatalf("succeeded = %d, want %d", sum.Succeeded, len(items))
	}

	// The server observed the true overlap; it must stay within the bound.
	if got := h.maxActive.Load(); got > 3 {
		t.Errorf("max concurrent requests = %d, want <= 3", got)
	}
}

func TestRunParallel_BoundClamped(t *testing.T) {
	cfg := BatchConfig{Parallel: 99}
	if got := cfg.Workers(); got != MaxParallel {
		t.Errorf("Workers() = %d, want clamped to %d", got, MaxParallel)
	}
	cfg = BatchConfig{Parallel: 0}
	if got := cfg.Workers(); got != DefaultParallel {
		t.Errorf("Workers() = %d, want default %d", got, DefaultParallel)
	}
	cfg = BatchConfig{Parallel: -2}
	if got := cfg.Workers(); got != DefaultParallel {
		t.Errorf("Workers() = %d, want default %d", got, DefaultParallel)
	}
}

func TestRunParallel_MixedOutcomes(t *testing.T) {
	h := newDexHandler("bulbasaur", "ivysaur")
	rig := newTestRig(t, h, BatchConfig{
		Items:    []types.Item{"bulbasaur", "missingno", "ivysaur"},
		Parallel: 2,
		Retry:    RetryConfig{MaxAttempts: 2, Delay: time.Millisecond},
	})

	sum := rig.runner.RunParallel(t.Context())
	if sum.Succeeded != 2 || sum.Failed != 1 {
		t.Errorf("summary = %d succeeded / %d failed, want 2/1", sum.Succeeded, sum.Failed)
	}
	if !rig.runner.Board().Snapshot().Done() {
		t.Error("board not terminal after join")
	}
}

func TestRunParallel_CancellationRecordsRemainderAndJoins(t *testing.T) {
	items := []types.Item{"bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon"}
	h := newDexHandler("bulbasaur", "ivysaur", "venusaur", "charmander", "charmeleon")
	rig := newTestRig(t, h, BatchConfig{Items: items, Parallel: 1})

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(15 * time.Millisecond)
		cancel()
	}()

	sum := rig.runner.RunParallel(ctx)

	// Every item gets exactly one terminal result even under cancellation.
	if sum.Total() != len(items) {
		t.Errorf("Total = %d, want %d", sum.Total(), len(items))
	}
	if sum.Failed == 0 {
		t.Error("expected canceled items to be recorded as failed")
	}
	if !rig.runner.Board().Snapshot().Done() {
		t.Error("board not terminal after canceled run")
	}
}

func TestScratch_ReleasedExactlyOnceOnEveryExitPath(t *testing.T) {
	s, err := NewScratch()
	if err != nil {
		t.Fatal(err)
	}

	// Populate scratch as a run would.
	if err := os.WriteFile(filepath.Join(s.Dir(), "bulbasaur-123.json.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(s.Dir()); !os.IsNotExist(err) {
		t.Errorf("scratch dir still exists after Release")
	}

	// Second release (defer + signal handler path) must be a no-op.
	if err := s.Release(); err != nil {
		t.Errorf("second Release = %v, want nil", err)
	}
}

func TestInterruptedParallelRunLeavesNoScratch(t *testing.T) {
	h := newDexHandler("bulbasaur", "ivysaur", "venusaur")
	scratch, err := NewScratch()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = scratch.Release() }()

	rig := newTestRig(t, h, BatchConfig{
		Items:    []types.Item{"bulbasaur", "ivysaur", "venusaur"},
		Parallel: 2,
	})

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_ = rig.runner.RunParallel(ctx)

	// The interrupt path releases scratch after the runner joins.
	if err := scratch.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(scratch.Dir()); !os.IsNotExist(err) {
		t.Error("scratch files remain after interrupt cleanup")
	}
}
