package carousel

import (
	"log/slog"
	"sync"
	"time"
)

// TickInterval is the countdown cadence. Fine enough to render a smooth
// on-screen countdown.
const TickInterval = 100 * time.Millisecond

// DurationFunc resolves the configured dwell duration for an item id.
type DurationFunc func(itemID string) time.Duration

// State is the scheduler's observable mode.
type State string

const (
	StateIdle    State = "idle"    // no items
	StateSingle  State = "single"  // one item, never advances
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Snapshot is the read-only view handed to the orchestrator and renderer.
// RemainingMs is nil whenever a countdown is not applicable.
type Snapshot struct {
	State       State        `json:"state"`
	Count       int          `json:"count"`
	Index       int          `json:"index"`
	Item        *DisplayItem `json:"item,omitempty"`
	Paused      bool         `json:"paused"`
	RemainingMs *int64       `json:"remaining_ms,omitempty"`
}

// Scheduler advances a rotation of N >= 0 items with per-item dwell times.
// All state is read under one mutex inside every tick, so the ticker
// goroutine always observes the current pause flag, item list, and duration
// table rather than values captured at creation time.
type Scheduler struct {
	mu          sync.Mutex
	items       []DisplayItem
	index       int
	paused      bool
	remaining   time.Duration
	armed       bool
	advancing   bool
	getDuration DurationFunc
	overrides   map[string]time.Duration

	transport Transport

	// newTicker is swapped out in tests; nil means a real time.Ticker at
	// TickInterval.
	newTicker func() (<-chan time.Time, func())

	// non-nil exactly while the ticker goroutine runs
	stopTick chan struct{}
}

// NewScheduler wires a scheduler to its slide transport. The transport's
// selection-changed event is the single synchronization point: whether the
// index changed from a manual skip or a timer advance, the confirmation
// lands in GoTo and the same reset logic runs.
func NewScheduler(transport Transport, getDuration DurationFunc) *Scheduler {
	s := &Scheduler{
		getDuration: getDuration,
		overrides:   make(map[string]time.Duration),
		transport:   transport,
	}
	transport.OnSelectionChanged(s.GoTo)
	return s
}

// Start (re)initializes the rotation with an ordered, deduplicated item
// list. The current index survives a list refresh when still in bounds and
// is clamped to the last valid index otherwise; either way the countdown
// re-arms because the item under the index may have changed.
func (s *Scheduler) Start(items []DisplayItem) {
	s.mu.Lock()

	s.items = items
	s.advancing = false
	clear(s.overrides)

	if len(items) == 0 {
		slog.Info("nothing to play, carousel idle")
		s.index = 0
		s.armed = false
		s.stopTickLocked()
		s.mu.Unlock()
		return
	}

	if s.index >= len(items) {
		s.index = len(items) - 1
	}

	if len(items) <= 1 || s.paused {
		// No ticker runs in Single or Paused; stopping here rather than
		// skipping ticks avoids leaking the repeating task.
		s.armed = false
		s.stopTickLocked()
		s.mu.Unlock()
		return
	}

	s.armLocked()
	s.ensureTickLocked()
	s.mu.Unlock()
}

// GoTo sets the current index and unconditionally re-arms the countdown
// from that item's configured duration. It is invoked by the transport's
// selection-changed event for every navigation cause.
func (s *Scheduler) GoTo(index int) {
	s.mu.Lock()
	n := len(s.items)
	if n == 0 {
		s.mu.Unlock()
		return
	}

	if index < 0 {
		index = 0
	}
	if index >= n {
		index = n - 1
	}

	looped := n > 1 && index == 0 && s.index == n-1
	s.index = index
	s.advancing = false

	if n > 1 {
		s.armLocked()
	} else {
		s.armed = false
	}
	s.mu.Unlock()

	if looped {
		slog.Info("carousel looped", "count", n)
	}
}

// Next requests a manual skip forward. The countdown re-arms when the
// transport confirms the move.
func (s *Scheduler) Next() {
	s.transport.ScrollNext()
}

// Previous requests a manual skip backward.
func (s *Scheduler) Previous() {
	s.transport.ScrollPrevious()
}

// TogglePause flips the pause flag. Remaining time is deliberately left
// alone: resuming continues the same countdown instead of restarting the
// dwell.
func (s *Scheduler) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = !s.paused
	if s.paused {
		s.stopTickLocked()
	} else if len(s.items) > 1 {
		if !s.armed {
			// Paused since before the first arm; start the dwell now.
			s.armLocked()
		}
		s.ensureTickLocked()
	}
	return s.paused
}

// SetDuration updates the dwell duration for one item. If the item is
// currently active its running countdown is untouched; the new duration
// applies the next time the item becomes active.
func (s *Scheduler) SetDuration(itemID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[itemID] = d
}

// Snapshot returns the current playback state for display.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Count:  len(s.items),
		Index:  s.index,
		Paused: s.paused,
	}

	switch {
	case len(s.items) == 0:
		snap.State = StateIdle
		return snap
	case len(s.items) == 1:
		snap.State = StateSingle
	case s.paused:
		snap.State = StatePaused
	default:
		snap.State = StatePlaying
	}

	item := s.items[s.index]
	snap.Item = &item

	if len(s.items) > 1 && s.armed {
		ms := s.remaining.Milliseconds()
		if ms < 0 {
			ms = 0
		}
		snap.RemainingMs = &ms
	}
	return snap
}

// Close tears the ticker down. Safe to call more than once.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.armed = false
	s.stopTickLocked()
}

// tick runs once per cadence interval. Pause state, item count, and the
// duration table are re-read under the lock on every invocation; they can
// all change between ticks without the ticker being rebuilt.
func (s *Scheduler) tick(elapsed time.Duration) {
	s.mu.Lock()
	if s.paused || len(s.items) <= 1 || !s.armed || s.advancing {
		s.mu.Unlock()
		return
	}

	s.remaining -= elapsed
	if s.remaining > 0 {
		s.mu.Unlock()
		return
	}

	// Dwell expired. Ask the transport to move and hold further countdown
	// until its confirmation lands in GoTo.
	s.advancing = true
	transport := s.transport
	s.mu.Unlock()

	transport.ScrollNext()
}

func (s *Scheduler) armLocked() {
	s.remaining = s.resolveDurationLocked(s.items[s.index].ID)
	s.armed = true
}

func (s *Scheduler) resolveDurationLocked(itemID string) time.Duration {
	if d, ok := s.overrides[itemID]; ok && d > 0 {
		return d
	}
	if s.getDuration != nil {
		if d := s.getDuration(itemID); d > 0 {
			return d
		}
	}
	return 10 * time.Second
}

// ensureTickLocked starts the ticker goroutine only if none exists.
// Double-creation would produce duplicate advances, so creation is guarded
// here rather than treated as a runtime error.
func (s *Scheduler) ensureTickLocked() {
	if s.stopTick != nil {
		return
	}
	if s.paused || len(s.items) <= 1 {
		return
	}

	stop := make(chan struct{})
	s.stopTick = stop

	factory := s.newTicker
	if factory == nil {
		factory = func() (<-chan time.Time, func()) {
			ticker := time.NewTicker(TickInterval)
			return ticker.C, ticker.Stop
		}
	}

	go func() {
		tickCh, stopTicker := factory()
		defer stopTicker()
		for {
			select {
			case <-stop:
				return
			case <-tickCh:
				s.tick(TickInterval)
			}
		}
	}()
}

func (s *Scheduler) stopTickLocked() {
	if s.stopTick == nil {
		return
	}
	close(s.stopTick)
	s.stopTick = nil
}
