package carousel

import "sync"

// Transport is the slide-transport collaborator that owns the visual
// transition between items. The scheduler never assumes its own navigation
// lands instantly: it asks the transport to move and re-arms the countdown
// only when the transport reports the selection change.
type Transport interface {
	ScrollNext()
	ScrollPrevious()
	SelectedIndex() int

	// OnSelectionChanged registers the callback fired whenever the
	// transport's selected index changes for any reason.
	OnSelectionChanged(fn func(index int))
}

// LoopTransport is the in-process transport used by the standalone
// appliance: a plain modular counter that confirms every move
// synchronously. A remote player replaces it and confirms over the API.
type LoopTransport struct {
	mu       sync.Mutex
	count    int
	index    int
	listener func(index int)
}

func NewLoopTransport() *LoopTransport {
	return &LoopTransport{}
}

// SetCount resizes the track. The selected index is clamped to the new
// bound; no notification fires since the rotation owner re-arms on resize.
func (t *LoopTransport) SetCount(count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count = count
	if t.index >= count {
		t.index = 0
		if count > 0 {
			t.index = count - 1
		}
	}
}

func (t *LoopTransport) ScrollNext() {
	t.move(1)
}

func (t *LoopTransport) ScrollPrevious() {
	t.move(-1)
}

func (t *LoopTransport) move(delta int) {
	t.mu.Lock()
	if t.count == 0 {
		t.mu.Unlock()
		return
	}
	t.index = ((t.index+delta)%t.count + t.count) % t.count
	index := t.index
	listener := t.listener
	t.mu.Unlock()

	// Listener runs outside the lock; it calls back into the scheduler.
	if listener != nil {
		listener(index)
	}
}

func (t *LoopTransport) SelectedIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.index
}

func (t *LoopTransport) OnSelectionChanged(fn func(index int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listener = fn
}
