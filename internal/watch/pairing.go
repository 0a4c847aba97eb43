package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/syncdog/syncdog/internal/syncconfig"
)

// renameWindow is how long a raw removal and a raw creation that share a
// basename are held before being paired into a single Moved event. Neither
// fsnotify nor fsevents natively hands this engine a paired rename (fsnotify
// has no destination at all; fsevents' ItemRenamed flag arrives separately
// on the source and destination paths with no correlating identifier), so
// both backends feed their raw removals/creations through this pairer before
// anything reaches the debounce table.
const renameWindow = 75 * time.Millisecond

type halfEvent struct {
	path  string
	isDir bool
	timer *time.Timer
}

// renamePairer turns a same-basename remove-then-create (in either arrival
// order) within renameWindow into one Moved event, and otherwise emits the
// raw event unchanged once the window lapses without a match.
type renamePairer struct {
	mu      sync.Mutex
	emit    func(Event)
	removes map[string]*halfEvent
	creates map[string]*halfEvent
}

func newRenamePairer(emit func(Event)) *renamePairer {
	return &renamePairer{
		emit:    emit,
		removes: make(map[string]*halfEvent),
		creates: make(map[string]*halfEvent),
	}
}

func (p *renamePairer) Remove(path string, isDir bool) {
	key := filepath.Base(path)

	p.mu.Lock()
	c, matched := p.removeCreateLocked(key, isDir)
	p.mu.Unlock()

	if matched {
		p.emit(Event{Kind: syncconfig.Moved, Src: path, Dst: c.path, IsDirectory: isDir})
		return
	}

	he := &halfEvent{path: path, isDir: isDir}
	he.timer = time.AfterFunc(renameWindow, func() {
		p.mu.Lock()
		if cur, ok := p.removes[key]; ok && cur == he {
			delete(p.removes, key)
		}
		p.mu.Unlock()
		p.emit(Event{Kind: syncconfig.Deleted, Src: path, IsDirectory: isDir})
	})

	p.mu.Lock()
	p.removes[key] = he
	p.mu.Unlock()
}

func (p *renamePairer) Create(path string, isDir bool) {
	key := filepath.Base(path)

	p.mu.Lock()
	r, matched := p.removeRemoveLocked(key, isDir)
	p.mu.Unlock()

	if matched {
		p.emit(Event{Kind: syncconfig.Moved, Src: r.path, Dst: path, IsDirectory: isDir})
		return
	}

	he := &halfEvent{path: path, isDir: isDir}
	he.timer = time.AfterFunc(renameWindow, func() {
		p.mu.Lock()
		if cur, ok := p.creates[key]; ok && cur == he {
			delete(p.creates, key)
		}
		p.mu.Unlock()
		p.emit(Event{Kind: syncconfig.Created, Src: path, IsDirectory: isDir})
	})

	p.mu.Lock()
	p.creates[key] = he
	p.mu.Unlock()
}

// removeCreateLocked pops a matching pending create, if any. Caller holds p.mu.
func (p *renamePairer) removeCreateLocked(key string, isDir bool) (*halfEvent, bool) {
	c, ok := p.creates[key]
	if !ok || c.isDir != isDir {
		return nil, false
	}
	c.timer.Stop()
	delete(p.creates, key)
	return c, true
}

// removeRemoveLocked pops a matching pending remove, if any. Caller holds p.mu.
func (p *renamePairer) removeRemoveLocked(key string, isDir bool) (*halfEvent, bool) {
	r, ok := p.removes[key]
	if !ok || r.isDir != isDir {
		return nil, false
	}
	r.timer.Stop()
	delete(p.removes, key)
	return r, true
}

// Stop cancels every pending half-event without emitting anything further.
func (p *renamePairer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, he := range p.removes {
		he.timer.Stop()
		delete(p.removes, k)
	}
	for k, he := range p.creates {
		he.timer.Stop()
		delete(p.creates, k)
	}
}
