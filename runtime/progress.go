package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/dexfetch/dexfetch/types"
)

// Board tracks per-item states during a run. Each item has exactly one
// writer (its worker), so state transitions never race each other; the
// mutex only orders writers against snapshot readers. This replaces the
// flat per-item status files of a multi-process design with an
// in-process single source of truth.
type Board struct {
	mu     sync.RWMutex
	order  []types.Item
	states map[types.Item]types.ItemState
}

// NewBoard creates a board with every item pending.
func NewBoard(items []types.Item) *Board {
	states := make(map[types.Item]types.ItemState, len(items))
	order := make([]types.Item, len(items))
	for i, it := range items {
		order[i] = it
		states[it] = types.StatePending
	}
	return &Board{order: order, states: states}
}

// Set records a state transition for an item.
func (b *Board) Set(item types.Item, state types.ItemState) {
	b.mu.Lock()
	b.states[item] = state
	b.mu.Unlock()
}

// ItemCount is the number of tracked items.
func (b *Board) ItemCount() int { return len(b.order) }

// BoardSnapshot is an aggregate view of the board at one instant.
type BoardSnapshot struct {
	Total     int
	Pending   int
	Running   int
	Succeeded int
	Skipped   int
	Failed    int
}

// Done reports whether every item has reached a terminal state.
func (s BoardSnapshot) Done() bool {
	return s.Succeeded+s.Skipped+s.Failed == s.Total
}

// Completed is the number of items in any terminal state.
func (s BoardSnapshot) Completed() int {
	return s.Succeeded + s.Skipped + s.Failed
}

// Snapshot returns aggregate counts over all items.
func (b *Board) Snapshot() BoardSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	snap := BoardSnapshot{Total: len(b.order)}
	for _, state := range b.states {
		switch state {
		case types.StatePending:
			snap.Pending++
		case types.StateRunning:
			snap.Running++
		case types.StateSuccess:
			snap.Succeeded++
		case types.StateSkipped:
			snap.Skipped++
		case types.StateFailed:
			snap.Failed++
		}
	}
	return snap
}

// States returns a copy of the per-item states in launch order.
func (b *Board) States() []ItemState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]ItemState, 0, len(b.order))
	for _, it := range b.order {
		out = append(out, ItemState{Item: it, State: b.states[it]})
	}
	return out
}

// ItemState pairs an item with its current state.
type ItemState struct {
	Item  types.Item
	State types.ItemState
}

// DefaultMonitorInterval is the default progress polling interval.
const DefaultMonitorInterval = time.Second

// Monitor polls a board on a fixed interval and hands each snapshot to
// a render callback until all items are terminal or the context ends.
type Monitor struct {
	board    *Board
	interval time.Duration
	render   func(BoardSnapshot)
}

// NewMonitor creates a monitor. A zero interval uses the default.
func NewMonitor(board *Board, interval time.Duration, render func(BoardSnapshot)) *Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	return &Monitor{board: board, interval: interval, render: render}
}

// Run blocks, rendering snapshots until completion or cancellation.
// The terminal snapshot is always rendered once before returning.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		snap := m.board.Snapshot()
		m.render(snap)
		if snap.Done() {
			return
		}

		select {
		case <-ctx.Done():
			m.render(m.board.Snapshot())
			return
		case <-ticker.C:
		}
	}
}
