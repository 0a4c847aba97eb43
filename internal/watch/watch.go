// Package watch normalizes OS filesystem notifications into a single
// internal Event type and delivers them over a channel, one backend per
// platform.
package watch

import "github.com/syncdog/syncdog/internal/syncconfig"

// Event is an immutable normalized filesystem notification.
type Event struct {
	Kind        syncconfig.Kind
	Src         string
	Dst         string // populated only for Moved
	IsDirectory bool
}

// Watcher recursively watches one or more roots and emits normalized Events.
// Start spawns its own goroutine and returns once watching is established;
// events are delivered on out until Stop is called. Back-pressure policy is
// a large buffered channel with a select/default drop — see sendEvent for
// the rationale.
type Watcher interface {
	Start(out chan<- Event) error
	Stop() error
}

// EventBufferSize is the channel capacity used by every backend. The
// filesystem itself bounds realistic event rates, so a large fixed buffer
// is preferred over unbounded growth.
const EventBufferSize = 4096
