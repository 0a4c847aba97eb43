// Package handler maps normalized watch events onto the replication actions
// in internal/action, for the two supported topologies: one-way and mirror.
package handler

import (
	"log/slog"

	"github.com/syncdog/syncdog/internal/security"
	"github.com/syncdog/syncdog/internal/syncconfig"
	"github.com/syncdog/syncdog/internal/watch"
)

// Handler processes one normalized event at a time. Implementations are
// owned exclusively by the engine's dispatch goroutine — no internal
// locking is required or provided.
type Handler interface {
	// Handle reacts to a freshly-arrived event: directories are replicated
	// immediately, files are handed to the debounce table, deletes and
	// renames act at once.
	Handle(ev watch.Event)

	// Stable is invoked once the debounce table judges path settled. kind
	// is the event kind recorded when the path was first observed.
	Stable(path string, kind syncconfig.Kind)
}

// logAction logs a failed replication action and, if onError is non-nil,
// forwards err so the engine can surface it through Status. Patch and
// Rename treat a missing source as nothing to do; CreateFile does not, and
// no action treats permission errors softly, so those reach here too. The
// failed action is not retried; the engine keeps running regardless.
func logAction(logger *slog.Logger, onError func(error), verb, path string, err error) {
	if err == nil {
		return
	}
	logger.Warn("replication action failed", "action", verb, "path", path, "error", err)
	if onError != nil {
		onError(err)
	}
}

// warnUnsafePermissions checks a just-written destination file and logs
// (never fails the replication over it) if its permissions are wider than
// expected, the same warn-and-continue treatment the engine gives an unsafe
// sidecar directory at startup.
func warnUnsafePermissions(logger *slog.Logger, path string) {
	if err := security.ValidateFilePermissions(path); err != nil {
		logger.Warn("replicated file permissions wider than expected", "path", path, "error", err)
	}
}
