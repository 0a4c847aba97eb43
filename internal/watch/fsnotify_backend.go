//go:build !darwin

package watch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/syncdog/syncdog/internal/syncconfig"
)

// FsnotifyWatcher recursively watches one or more roots using fsnotify.
// Unlike the directory-automation daemon this engine is descended from,
// which only ever watches its configured paths non-recursively, a sync
// engine must see every depth — so newly created subdirectories are added
// to the watch set as they appear.
type FsnotifyWatcher struct {
	roots []string
	w     *fsnotify.Watcher
	done  chan struct{}
}

var _ Watcher = (*FsnotifyWatcher)(nil)

// NewFsnotifyWatcher creates a watcher over roots, recursively.
func NewFsnotifyWatcher(roots []string) (*FsnotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &FsnotifyWatcher{roots: roots, w: w}, nil
}

func (f *FsnotifyWatcher) Start(out chan<- Event) error {
	for _, root := range f.roots {
		if err := f.addRecursive(root); err != nil {
			f.w.Close()
			return fmt.Errorf("watching %s: %w", root, err)
		}
	}

	f.done = make(chan struct{})
	pairer := newRenamePairer(func(ev Event) { sendEvent(out, ev) })

	go func() {
		defer close(f.done)
		defer pairer.Stop()
		for {
			select {
			case ev, ok := <-f.w.Events:
				if !ok {
					return
				}
				f.handle(ev, pairer)
			case _, ok := <-f.w.Errors:
				if !ok {
					return
				}
				// Transient watcher errors don't stop the engine; the next
				// stability tick on an affected path will retry naturally.
			}
		}
	}()

	return nil
}

func (f *FsnotifyWatcher) Stop() error {
	err := f.w.Close()
	if f.done != nil {
		<-f.done
	}
	return err
}

func (f *FsnotifyWatcher) handle(ev fsnotify.Event, pairer *renamePairer) {
	info, statErr := os.Lstat(ev.Name)
	isDir := statErr == nil && info.IsDir()

	switch {
	case ev.Has(fsnotify.Create):
		if isDir {
			_ = f.addRecursive(ev.Name)
		}
		pairer.Create(ev.Name, isDir)
	case ev.Has(fsnotify.Write):
		if isDir {
			return
		}
		// A write to a file whose Create the pairer is still holding is
		// covered by that Created event once it is released; emitting it now
		// would put Modified ahead of Created for the same path.
		pairer.mu.Lock()
		c, pending := pairer.creates[filepath.Base(ev.Name)]
		pending = pending && c.path == ev.Name
		pairer.mu.Unlock()
		if !pending {
			pairer.emit(Event{Kind: syncconfig.Modified, Src: ev.Name})
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// fsnotify cannot tell us whether the vanished path was a
		// directory; assume file, the pairer's basename+kind match will
		// simply fail to pair against a directory create and correctly
		// fall through to a plain Deleted event instead.
		pairer.Remove(ev.Name, false)
	}
}

// addRecursive adds root and every existing subdirectory beneath it to the
// watch set.
func (f *FsnotifyWatcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if addErr := f.w.Add(path); addErr != nil {
				return addErr
			}
		}
		return nil
	})
}

func sendEvent(out chan<- Event, ev Event) {
	select {
	case out <- ev:
	default:
		// channel full: the filesystem itself bounds realistic event
		// rates, so a full buffer means a true flood; drop rather than
		// block the watcher goroutine indefinitely.
	}
}
