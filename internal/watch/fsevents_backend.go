//go:build darwin

package watch

import (
	"fmt"

	"github.com/fsnotify/fsevents"
	"github.com/syncdog/syncdog/internal/syncconfig"
)

// FseventsWatcher recursively watches one or more roots using macOS
// FSEvents. FSEvents watches path strings rather than file descriptors, so
// it natively tolerates a watched root being unmounted and remounted.
type FseventsWatcher struct {
	roots  []string
	stream *fsevents.EventStream
	done   chan struct{}
}

var _ Watcher = (*FseventsWatcher)(nil)

// NewFseventsWatcher creates a watcher over roots, recursively.
func NewFseventsWatcher(roots []string) (*FseventsWatcher, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("fsevents watcher requires at least one root")
	}
	return &FseventsWatcher{roots: roots}, nil
}

func (f *FseventsWatcher) Start(out chan<- Event) error {
	stream := &fsevents.EventStream{
		Paths:   f.roots,
		Latency: 0,
		Flags:   fsevents.FileEvents | fsevents.WatchRoot | fsevents.NoDefer,
	}
	f.stream = stream
	stream.Start()

	f.done = make(chan struct{})
	pairer := newRenamePairer(func(ev Event) { sendEvent(out, ev) })

	go func() {
		defer close(f.done)
		defer pairer.Stop()
		for batch := range stream.Events {
			for _, ev := range batch {
				f.handle(ev, pairer)
			}
		}
	}()

	return nil
}

func (f *FseventsWatcher) Stop() error {
	if f.stream != nil {
		f.stream.Stop()
	}
	if f.done != nil {
		<-f.done
	}
	return nil
}

func (f *FseventsWatcher) handle(ev fsevents.Event, pairer *renamePairer) {
	if ev.Flags&fsevents.MustScanSubDirs != 0 ||
		ev.Flags&fsevents.KernelDropped != 0 ||
		ev.Flags&fsevents.UserDropped != 0 {
		// A rescan would be required to recover precisely; the debounce
		// table's size-stability check means a missed intermediate event
		// still converges once the file's size settles, so we simply drop
		// the notification rather than attempt a full resync here.
		return
	}
	if ev.Flags&(fsevents.Mount|fsevents.Unmount|fsevents.RootChanged) != 0 {
		return
	}

	isDir := ev.Flags&fsevents.ItemIsDir != 0

	switch {
	case ev.Flags&fsevents.ItemRemoved != 0:
		pairer.Remove(ev.Path, isDir)
	case ev.Flags&fsevents.ItemCreated != 0:
		// Includes rename destinations (ItemCreated|ItemRenamed together).
		pairer.Create(ev.Path, isDir)
	case ev.Flags&fsevents.ItemModified != 0:
		if !isDir {
			pairer.emit(Event{Kind: syncconfig.Modified, Src: ev.Path})
		}
	default:
		// A bare ItemRenamed without ItemCreated or ItemRemoved is the
		// source side of a rename whose path no longer exists; fsevents
		// gives us no destination here, so treat it as a removal and let
		// the pairer match it against the destination's ItemCreated.
		if ev.Flags&fsevents.ItemRenamed != 0 {
			pairer.Remove(ev.Path, isDir)
		}
	}
}

// sendEvent delivers ev without blocking the watcher goroutine; when out is
// full the event is dropped.
func sendEvent(out chan<- Event, ev Event) {
	select {
	case out <- ev:
	default:
	}
}
