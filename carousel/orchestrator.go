package carousel

import (
	"log/slog"
	"sync"
	"time"

	"lobbysign/layout"
	"lobbysign/store"
)

// Orchestrator composes the rotation pipeline: raw feed -> filter/dedupe ->
// scheduler + transport, with the preference mapping feeding dwell lookups
// and the layout engine feeding sizing tokens for the active display.
//
// Lock discipline: the orchestrator releases its own mutex before calling
// into the scheduler or transport; the scheduler's duration lookup takes
// the orchestrator mutex on its own.
type Orchestrator struct {
	mu      sync.Mutex
	prefs   map[string]store.ItemPreferences
	items   []DisplayItem
	metrics layout.ScreenMetrics
	sizes   layout.Sizes

	db        *store.Database
	engine    *layout.Engine
	transport *LoopTransport
	scheduler *Scheduler
}

// View is the orchestrator's read-only composite for the renderer/API.
type View struct {
	Playback Snapshot              `json:"playback"`
	Prefs    store.ItemPreferences `json:"prefs"`
	Metrics  layout.ScreenMetrics  `json:"metrics"`
	Sizes    layout.Sizes          `json:"sizes"`
}

func NewOrchestrator(db *store.Database, engine *layout.Engine, metrics layout.ScreenMetrics) *Orchestrator {
	prefs := make(map[string]store.ItemPreferences)
	if db != nil {
		prefs = db.LoadPreferences()
	}

	o := &Orchestrator{
		prefs:   prefs,
		metrics: metrics,
		sizes:   engine.SizesFor(metrics),
		db:      db,
		engine:  engine,
	}
	o.transport = NewLoopTransport()
	o.scheduler = NewScheduler(o.transport, o.dwellFor)
	return o
}

// SetItems replaces the rotation with a fresh feed. Returns the rotation
// length after filtering and deduplication.
func (o *Orchestrator) SetItems(raw []DisplayItem) int {
	rotation := BuildRotation(raw)

	o.mu.Lock()
	o.items = rotation
	o.mu.Unlock()

	o.transport.SetCount(len(rotation))
	o.scheduler.Start(rotation)
	return len(rotation)
}

// Items returns the current rotation in order.
func (o *Orchestrator) Items() []DisplayItem {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := make([]DisplayItem, len(o.items))
	copy(items, o.items)
	return items
}

func (o *Orchestrator) Next()             { o.scheduler.Next() }
func (o *Orchestrator) Previous()         { o.scheduler.Previous() }
func (o *Orchestrator) TogglePause() bool { return o.scheduler.TogglePause() }

// dwellFor resolves an item's configured dwell duration from the in-memory
// preference mapping; absent entries mean defaults.
func (o *Orchestrator) dwellFor(itemID string) time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	ms := store.DefaultDwellMs
	if p, ok := o.prefs[itemID]; ok {
		ms = store.ClampDwell(p.DwellDurationMs)
	}
	return time.Duration(ms) * time.Millisecond
}

// SetDwell clamps and records a new dwell duration for one item, rewrites
// the persisted mapping, and updates the scheduler's duration table. The
// active item's running countdown is not touched.
func (o *Orchestrator) SetDwell(itemID string, ms int) int {
	ms = store.ClampDwell(ms)

	o.mu.Lock()
	p, ok := o.prefs[itemID]
	if !ok {
		p = store.DefaultPreferences()
	}
	p.DwellDurationMs = ms
	o.prefs[itemID] = p
	snapshot := o.prefsSnapshotLocked()
	o.mu.Unlock()

	o.persist(snapshot)
	o.scheduler.SetDuration(itemID, time.Duration(ms)*time.Millisecond)
	return ms
}

// UpdateImagePrefs merges the provided fields into an item's preference
// record, preserving every field that is not being set, then rewrites the
// persisted mapping.
func (o *Orchestrator) UpdateImagePrefs(itemID string, imageLayout *string, scale *float64, splitPercent *int, opacity *float64) store.ItemPreferences {
	o.mu.Lock()
	p, ok := o.prefs[itemID]
	if !ok {
		p = store.DefaultPreferences()
	}
	if imageLayout != nil {
		p.ImageLayout = *imageLayout
	}
	if scale != nil {
		p.ImageScale = *scale
	}
	if splitPercent != nil {
		p.ImageSplitPercent = *splitPercent
	}
	if opacity != nil {
		p.ImageOpacity = *opacity
	}
	o.prefs[itemID] = p
	snapshot := o.prefsSnapshotLocked()
	o.mu.Unlock()

	o.persist(snapshot)
	return p
}

// PreferencesFor returns an item's preference record, defaults when absent.
func (o *Orchestrator) PreferencesFor(itemID string) store.ItemPreferences {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p, ok := o.prefs[itemID]; ok {
		return p
	}
	return store.DefaultPreferences()
}

// HandleResize recomputes screen metrics and sizing tokens from a resize or
// orientation-change event.
func (o *Orchestrator) HandleResize(width, height int, pixelRatio float64) layout.Sizes {
	m := layout.Classify(width, height, pixelRatio)
	sizes := o.engine.SizesFor(m)

	o.mu.Lock()
	o.metrics = m
	o.sizes = sizes
	o.mu.Unlock()

	slog.Info("recomputed layout for display",
		"width", m.Width, "height", m.Height,
		"orientation", m.Orientation, "large", m.IsLargeDisplay, "constrained", m.IsConstrained)
	return sizes
}

// SizesForSample computes sizing tokens for an arbitrary metrics sample
// without touching the stored display state.
func (o *Orchestrator) SizesForSample(width, height int, pixelRatio float64) (layout.ScreenMetrics, layout.Sizes) {
	m := layout.Classify(width, height, pixelRatio)
	return m, o.engine.SizesFor(m)
}

// SetLayoutOverrides applies or clears the operator's manual icon/avatar
// multipliers and refreshes the current sizing tokens.
func (o *Orchestrator) SetLayoutOverrides(icon, avatar *float64, clearAll bool) layout.Sizes {
	if clearAll {
		o.engine.ClearOverrides()
	}
	if icon != nil {
		o.engine.SetIconMultiplier(*icon)
	}
	if avatar != nil {
		o.engine.SetAvatarMultiplier(*avatar)
	}

	o.mu.Lock()
	o.sizes = o.engine.SizesFor(o.metrics)
	sizes := o.sizes
	o.mu.Unlock()
	return sizes
}

// View assembles the full read-only state for the renderer.
func (o *Orchestrator) View() View {
	snap := o.scheduler.Snapshot()

	o.mu.Lock()
	defer o.mu.Unlock()

	prefs := store.DefaultPreferences()
	if snap.Item != nil {
		if p, ok := o.prefs[snap.Item.ID]; ok {
			prefs = p
		}
	}

	return View{
		Playback: snap,
		Prefs:    prefs,
		Metrics:  o.metrics,
		Sizes:    o.sizes,
	}
}

func (o *Orchestrator) Close() {
	o.scheduler.Close()
}

func (o *Orchestrator) prefsSnapshotLocked() map[string]store.ItemPreferences {
	snapshot := make(map[string]store.ItemPreferences, len(o.prefs))
	for id, p := range o.prefs {
		snapshot[id] = p
	}
	return snapshot
}

// persist rewrites the backing store. Failures degrade to a log line; the
// in-memory mapping stays authoritative for the session.
func (o *Orchestrator) persist(prefs map[string]store.ItemPreferences) {
	if o.db == nil {
		return
	}
	if err := o.db.SavePreferences(prefs); err != nil {
		slog.Error("unable to persist item preferences", "error", err)
	}
}
