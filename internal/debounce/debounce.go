// Package debounce coalesces bursts of filesystem events per path and
// releases a path for replication only once its size has stopped changing.
package debounce

import (
	"sync"
	"time"

	"github.com/syncdog/syncdog/internal/syncconfig"
)

// StatFunc samples a path's current size. exists is false if the path has
// disappeared; transient is true for a sharing violation or permission
// error that should be treated as "still in flight" rather than gone.
type StatFunc func(path string) (size int64, exists bool, transient bool, err error)

// StableFunc is invoked once a path is believed stable. kind is the
// pendingKind recorded for the path (Created or Modified) and determines
// which replication action the caller dispatches. It may be called from
// either the goroutine that called Observe or from a timer goroutine — it
// must not block and must not call back into the Table synchronously;
// callers post it onto their own dispatch channel instead of acting on it
// inline, per the engine's single-dispatch-goroutine ordering guarantee.
type StableFunc func(path string, kind syncconfig.Kind)

type entry struct {
	lastSize    int64
	pendingKind syncconfig.Kind
	fired       bool
	timer       *time.Timer
}

// Table is the per-path debounce state. An entry exists for a path
// precisely while a future action is scheduled for it.
type Table struct {
	mu       sync.Mutex
	interval time.Duration
	stat     StatFunc
	onStable StableFunc
	entries  map[string]*entry
}

// New creates an empty debounce table. stat samples a candidate file's
// size; onStable is called once a path is judged stable.
func New(interval time.Duration, stat StatFunc, onStable StableFunc) *Table {
	return &Table{
		interval: interval,
		stat:     stat,
		onStable: onStable,
		entries:  make(map[string]*entry),
	}
}

// Observe records an event for path. kind must be Created or Modified.
func (t *Table) Observe(path string, kind syncconfig.Kind) {
	size, exists, transient, err := t.stat(path)

	t.mu.Lock()
	e, tracked := t.entries[path]

	if !exists && !transient {
		// Missing source: drop the entry silently.
		if tracked {
			e.timer.Stop()
			delete(t.entries, path)
		}
		t.mu.Unlock()
		return
	}

	if err != nil && transient {
		// Sharing violation / permission denied: still in flight. Keep
		// waiting without updating the size we last trusted.
		if tracked {
			t.rearmLocked(path, e)
		} else {
			t.entries[path] = &entry{pendingKind: kind, timer: t.newTimer(path)}
		}
		t.mu.Unlock()
		return
	}

	if !tracked {
		t.entries[path] = &entry{lastSize: size, pendingKind: kind, timer: t.newTimer(path)}
		t.mu.Unlock()
		return
	}

	if size != e.lastSize {
		e.lastSize = size
		e.fired = false
		t.rearmLocked(path, e)
		t.mu.Unlock()
		return
	}

	// Size unchanged since last observation.
	if !e.fired {
		t.rearmLocked(path, e)
		t.mu.Unlock()
		return
	}

	delete(t.entries, path)
	stableKind := e.pendingKind
	t.mu.Unlock()
	t.onStable(path, stableKind)
}

// Cancel removes any entry for path and cancels its timer. Called on
// deleted and moved events for the source side.
func (t *Table) Cancel(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e, ok := t.entries[path]; ok {
		e.timer.Stop()
		delete(t.entries, path)
	}
}

// Drain cancels every pending timer and empties the table.
func (t *Table) Drain() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for path, e := range t.entries {
		e.timer.Stop()
		delete(t.entries, path)
	}
}

// Len reports how many paths are currently tracked. Exposed for tests.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *Table) newTimer(path string) *time.Timer {
	return time.AfterFunc(t.interval, func() { t.onTick(path) })
}

// rearmLocked stops and replaces e's timer. Caller holds t.mu.
func (t *Table) rearmLocked(path string, e *entry) {
	e.timer.Stop()
	e.timer = t.newTimer(path)
}

func (t *Table) onTick(path string) {
	size, exists, transient, err := t.stat(path)

	t.mu.Lock()
	e, tracked := t.entries[path]
	if !tracked {
		t.mu.Unlock()
		return
	}

	if !exists && !transient {
		delete(t.entries, path)
		t.mu.Unlock()
		return
	}

	if err != nil && transient {
		t.rearmLocked(path, e)
		t.mu.Unlock()
		return
	}

	if size != e.lastSize {
		e.lastSize = size
		e.fired = false
		t.rearmLocked(path, e)
		t.mu.Unlock()
		return
	}

	// Two consecutive equal samples, one debounce interval apart: stable.
	e.fired = true
	delete(t.entries, path)
	kind := e.pendingKind
	t.mu.Unlock()
	t.onStable(path, kind)
}
