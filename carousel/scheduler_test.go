package carousel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silentTicker keeps the internal ticker goroutine from ever firing so
// tests drive tick() by hand.
func silentTicker() (<-chan time.Time, func()) {
	return make(chan time.Time), func() {}
}

func published(ids ...string) []DisplayItem {
	items := make([]DisplayItem, len(ids))
	for i, id := range ids {
		items[i] = DisplayItem{ID: id, Title: "Announcement " + id, Status: StatusPublished}
	}
	return items
}

func newTestScheduler(t *testing.T, durations map[string]time.Duration, items []DisplayItem) *Scheduler {
	t.Helper()
	transport := NewLoopTransport()
	transport.SetCount(len(items))
	s := NewScheduler(transport, func(id string) time.Duration {
		return durations[id]
	})
	s.newTicker = silentTicker
	s.Start(items)
	return s
}

func tickN(s *Scheduler, n int) {
	for i := 0; i < n; i++ {
		s.tick(TickInterval)
	}
}

func remainingMs(t *testing.T, s *Scheduler) int64 {
	t.Helper()
	snap := s.Snapshot()
	require.NotNil(t, snap.RemainingMs, "expected an armed countdown")
	return *snap.RemainingMs
}

func TestSchedulerScenarioThreeItems(t *testing.T) {
	durations := map[string]time.Duration{
		"a": 3000 * time.Millisecond,
		"b": 5000 * time.Millisecond,
		"c": 3000 * time.Millisecond,
	}
	s := newTestScheduler(t, durations, published("a", "b", "c"))

	assert.Equal(t, 0, s.Snapshot().Index)
	assert.Equal(t, int64(3000), remainingMs(t, s))

	// 3000 ms elapsed: advance to b with b's full dwell
	tickN(s, 30)
	assert.Equal(t, 1, s.Snapshot().Index)
	assert.Equal(t, int64(5000), remainingMs(t, s))

	// a further 5000 ms: advance to c
	tickN(s, 50)
	assert.Equal(t, 2, s.Snapshot().Index)
	assert.Equal(t, int64(3000), remainingMs(t, s))

	// a further 3000 ms: loop back to a
	tickN(s, 30)
	assert.Equal(t, 0, s.Snapshot().Index)
	assert.Equal(t, int64(3000), remainingMs(t, s))
}

func TestSchedulerNoDrift(t *testing.T) {
	durations := map[string]time.Duration{
		"a": 1000 * time.Millisecond,
		"b": 1000 * time.Millisecond,
	}
	s := newTestScheduler(t, durations, published("a", "b"))

	// ticks between consecutive advances must be ceil(d/c) every cycle
	for cycle := 0; cycle < 6; cycle++ {
		start := s.Snapshot().Index
		ticks := 0
		for s.Snapshot().Index == start {
			s.tick(TickInterval)
			ticks++
			require.Less(t, ticks, 100, "scheduler never advanced")
		}
		assert.Equal(t, 10, ticks, "cycle %d", cycle)
	}
}

func TestSchedulerManualNextMidDwell(t *testing.T) {
	durations := map[string]time.Duration{
		"a": 3000 * time.Millisecond,
		"b": 5000 * time.Millisecond,
	}
	s := newTestScheduler(t, durations, published("a", "b"))

	tickN(s, 22)
	assert.Equal(t, int64(800), remainingMs(t, s))

	// manual skip arms b's full dwell, not 800+5000 and not 0
	s.Next()
	assert.Equal(t, 1, s.Snapshot().Index)
	assert.Equal(t, int64(5000), remainingMs(t, s))
}

func TestSchedulerPauseFreezesCountdown(t *testing.T) {
	durations := map[string]time.Duration{
		"a": 3000 * time.Millisecond,
		"b": 3000 * time.Millisecond,
	}
	s := newTestScheduler(t, durations, published("a", "b"))

	tickN(s, 18)
	assert.Equal(t, int64(1200), remainingMs(t, s))

	paused := s.TogglePause()
	require.True(t, paused)

	// arbitrary wall-clock delay while paused: ticks must not count down
	tickN(s, 500)
	assert.Equal(t, int64(1200), remainingMs(t, s))
	assert.Equal(t, 0, s.Snapshot().Index)

	paused = s.TogglePause()
	require.False(t, paused)
	assert.Equal(t, int64(1200), remainingMs(t, s))
}

func TestSchedulerTogglePauseParity(t *testing.T) {
	s := newTestScheduler(t, nil, published("a", "b"))

	before := s.Snapshot().Paused
	s.TogglePause()
	s.TogglePause()
	assert.Equal(t, before, s.Snapshot().Paused)

	s.TogglePause()
	assert.NotEqual(t, before, s.Snapshot().Paused)
	s.TogglePause()
	assert.Equal(t, before, s.Snapshot().Paused)
}

func TestSchedulerLoopingLaw(t *testing.T) {
	s := newTestScheduler(t, nil, published("a", "b", "c", "d"))

	start := s.Snapshot().Index
	for i := 0; i < 4; i++ {
		s.Next()
	}
	assert.Equal(t, start, s.Snapshot().Index, "N advances return to the starting index")

	for i := 0; i < 3; i++ {
		s.Next()
	}
	assert.Equal(t, 3, s.Snapshot().Index)
	s.Next()
	assert.Equal(t, 0, s.Snapshot().Index, "advancing from N-1 goes to 0")

	s.Previous()
	assert.Equal(t, 3, s.Snapshot().Index, "backing up from 0 goes to N-1")
}

func TestSchedulerGoToRearmsUnconditionally(t *testing.T) {
	durations := map[string]time.Duration{
		"a": 2000 * time.Millisecond,
		"b": 4000 * time.Millisecond,
		"c": 6000 * time.Millisecond,
	}
	s := newTestScheduler(t, durations, published("a", "b", "c"))

	tickN(s, 5)
	s.GoTo(2)
	assert.Equal(t, 2, s.Snapshot().Index)
	assert.Equal(t, int64(6000), remainingMs(t, s))

	// jumping to the same index still resets the countdown
	tickN(s, 5)
	s.GoTo(2)
	assert.Equal(t, int64(6000), remainingMs(t, s))
}

func TestSchedulerSetDurationDefersToNextActivation(t *testing.T) {
	durations := map[string]time.Duration{
		"a": 1000 * time.Millisecond,
		"b": 1000 * time.Millisecond,
	}
	s := newTestScheduler(t, durations, published("a", "b"))

	tickN(s, 3)
	assert.Equal(t, int64(700), remainingMs(t, s))

	s.SetDuration("a", 5000*time.Millisecond)

	// active item's running countdown is untouched
	assert.Equal(t, int64(700), remainingMs(t, s))

	// finish a, then b, then a becomes active again with the new duration
	tickN(s, 7)
	assert.Equal(t, 1, s.Snapshot().Index)
	tickN(s, 10)
	assert.Equal(t, 0, s.Snapshot().Index)
	assert.Equal(t, int64(5000), remainingMs(t, s))
}

func TestSchedulerIdle(t *testing.T) {
	s := newTestScheduler(t, nil, nil)

	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Equal(t, 0, snap.Count)
	assert.Nil(t, snap.Item)
	assert.Nil(t, snap.RemainingMs)

	// ticks and navigation on an empty rotation are no-ops
	tickN(s, 10)
	s.Next()
	s.Previous()
	assert.Equal(t, StateIdle, s.Snapshot().State)

	s.mu.Lock()
	assert.Nil(t, s.stopTick, "no ticker may run while idle")
	s.mu.Unlock()
}

func TestSchedulerSingleNeverAdvances(t *testing.T) {
	s := newTestScheduler(t, map[string]time.Duration{"a": 2000 * time.Millisecond}, published("a"))

	snap := s.Snapshot()
	assert.Equal(t, StateSingle, snap.State)
	assert.Nil(t, snap.RemainingMs)

	tickN(s, 1000)
	snap = s.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, StateSingle, snap.State)

	s.mu.Lock()
	assert.Nil(t, s.stopTick, "no ticker may run for a single item")
	s.mu.Unlock()
}

func TestSchedulerShrinkClampsIndex(t *testing.T) {
	durations := map[string]time.Duration{
		"a": 1000 * time.Millisecond,
		"b": 2000 * time.Millisecond,
	}
	s := newTestScheduler(t, durations, published("a", "b", "c", "d", "e"))

	s.GoTo(4)
	require.Equal(t, 4, s.Snapshot().Index)

	s.Start(published("a", "b"))
	assert.Equal(t, 1, s.Snapshot().Index)
	assert.Equal(t, int64(2000), remainingMs(t, s))
}

func TestSchedulerShrinkToSingleStopsTicker(t *testing.T) {
	s := newTestScheduler(t, nil, published("a", "b", "c"))

	s.mu.Lock()
	require.NotNil(t, s.stopTick)
	s.mu.Unlock()

	s.Start(published("a"))

	s.mu.Lock()
	assert.Nil(t, s.stopTick, "ticker must stop entirely when N drops to 1")
	s.mu.Unlock()
}

func TestSchedulerTickerLifecycle(t *testing.T) {
	s := newTestScheduler(t, nil, published("a", "b"))

	hasTicker := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.stopTick != nil
	}

	require.True(t, hasTicker())

	s.TogglePause()
	assert.False(t, hasTicker(), "pausing tears the ticker down")

	s.TogglePause()
	assert.True(t, hasTicker(), "resuming recreates the ticker")

	// ensureTick is guarded: a redundant Start must not spawn a second loop
	s.Start(published("a", "b"))
	assert.True(t, hasTicker())

	s.Close()
	assert.False(t, hasTicker())
	s.Close()
}

func TestSchedulerPausedStartReportsNoCountdown(t *testing.T) {
	transport := NewLoopTransport()
	items := published("a", "b")
	transport.SetCount(len(items))
	s := NewScheduler(transport, nil)
	s.newTicker = silentTicker

	s.TogglePause()
	s.Start(items)

	snap := s.Snapshot()
	assert.Equal(t, StatePaused, snap.State)
	assert.Nil(t, snap.RemainingMs)

	// resume arms the first dwell
	s.TogglePause()
	assert.NotNil(t, s.Snapshot().RemainingMs)
}

func TestLoopTransportWraps(t *testing.T) {
	tr := NewLoopTransport()
	tr.SetCount(3)

	var got []int
	tr.OnSelectionChanged(func(index int) {
		got = append(got, index)
	})

	tr.ScrollNext()
	tr.ScrollNext()
	tr.ScrollNext()
	tr.ScrollPrevious()
	assert.Equal(t, []int{1, 2, 0, 2}, got)

	tr.SetCount(0)
	tr.ScrollNext()
	assert.Equal(t, []int{1, 2, 0, 2}, got, "empty track never notifies")
}
