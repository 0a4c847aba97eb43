package handler

import (
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/syncdog/syncdog/internal/action"
	"github.com/syncdog/syncdog/internal/debounce"
	"github.com/syncdog/syncdog/internal/syncconfig"
	"github.com/syncdog/syncdog/internal/syncpath"
	"github.com/syncdog/syncdog/internal/watch"
)

// errUnknownSide is returned internally when an event's path descends from
// neither RootA nor RootB.
var errUnknownSide = errors.New("handler: path not under either mirror root")

// suppression is the narrow slice of *suppress.Set Mirror needs, declared
// here so this package doesn't have to import suppress's concrete type.
type suppression interface {
	Add(path string, ttl time.Duration, now time.Time)
	TakeIfPresent(path string) bool
}

// Mirror replicates changes in both directions. A suppression set keeps a
// write the engine itself performed on one side from being echoed back as
// an incoming event from the other.
type Mirror struct {
	RootA, RootB   string
	SidecarName    string
	TableAtoB      *debounce.Table
	TableBtoA      *debounce.Table
	Suppression    suppression
	SuppressionTTL time.Duration
	// Logger is the base logger; LoggerA/LoggerB, if set, are the
	// root-tagged loggers (via logging.WithRoot) used for per-side log
	// lines instead. Both fall back to Logger when nil, so callers that
	// don't care about the distinction can leave them unset.
	Logger  *slog.Logger
	LoggerA *slog.Logger
	LoggerB *slog.Logger
	OnError func(error)
}

type side struct {
	srcRoot, dstRoot string
	table            *debounce.Table
	logger           *slog.Logger
}

func (h *Mirror) resolveSide(path string) (side, error) {
	if _, err := syncpath.Map(h.RootA, h.RootB, path); err == nil {
		return side{srcRoot: h.RootA, dstRoot: h.RootB, table: h.TableAtoB, logger: h.loggerFor(h.LoggerA)}, nil
	}
	if _, err := syncpath.Map(h.RootB, h.RootA, path); err == nil {
		return side{srcRoot: h.RootB, dstRoot: h.RootA, table: h.TableBtoA, logger: h.loggerFor(h.LoggerB)}, nil
	}
	return side{}, errUnknownSide
}

func (h *Mirror) loggerFor(sideLogger *slog.Logger) *slog.Logger {
	if sideLogger != nil {
		return sideLogger
	}
	return h.Logger
}

// suppress records dstPath as an echo to ignore for this side's debounce
// interval. Called before every action that writes to the destination.
func (h *Mirror) suppress(dstPath string) {
	h.Suppression.Add(dstPath, h.SuppressionTTL, time.Now())
}

// Handle implements Handler.
func (h *Mirror) Handle(ev watch.Event) {
	s, err := h.resolveSide(ev.Src)
	if err != nil {
		h.Logger.Warn("event outside both mirror roots", "path", ev.Src, "error", err)
		return
	}
	if syncpath.InSidecar(s.srcRoot, h.SidecarName, ev.Src) {
		return
	}

	// Directory events are idempotent (mkdir-all, recursive seed-copy) and
	// are never suppressed — an echo just repeats the same no-op.
	if ev.Kind == syncconfig.Created && ev.IsDirectory {
		logAction(s.logger, h.OnError, "create_directory", ev.Src, action.CreateDirectory(s.srcRoot, ev.Src, s.dstRoot))
		return
	}

	if h.Suppression.TakeIfPresent(ev.Src) {
		return
	}

	switch ev.Kind {
	case syncconfig.Created:
		s.table.Observe(ev.Src, syncconfig.Created)

	case syncconfig.Modified:
		if ev.IsDirectory {
			return
		}
		if h.isEcho(s, ev.Src) {
			return
		}
		s.table.Observe(ev.Src, syncconfig.Modified)

	case syncconfig.Deleted:
		s.table.Cancel(ev.Src)
		if mapped, mapErr := syncpath.Map(s.srcRoot, s.dstRoot, ev.Src); mapErr == nil {
			h.suppress(mapped)
		}
		logAction(s.logger, h.OnError, "delete", ev.Src, action.Delete(s.srcRoot, ev.Src, s.dstRoot))

	case syncconfig.Moved:
		s.table.Cancel(ev.Src)
		if mapped, mapErr := syncpath.Map(s.srcRoot, s.dstRoot, ev.Dst); mapErr == nil {
			h.suppress(mapped)
		}
		logAction(s.logger, h.OnError, "rename", ev.Src, action.Rename(s.srcRoot, ev.Src, ev.Dst, s.dstRoot))
	}
}

// isEcho implements the modified-on-same-size optimization: if the
// destination already matches the source's size, this is almost certainly
// our own write that narrowly missed the suppression set.
func (h *Mirror) isEcho(s side, srcPath string) bool {
	dst, err := syncpath.Map(s.srcRoot, s.dstRoot, srcPath)
	if err != nil {
		return false
	}
	srcSize, srcExists, _, err := action.SampleSize(srcPath)
	if err != nil || !srcExists {
		return false
	}
	dstSize, dstExists, _, err := action.SampleSize(dst)
	if err != nil || !dstExists {
		return false
	}
	return dstSize == srcSize
}

// Stable implements Handler.
func (h *Mirror) Stable(path string, kind syncconfig.Kind) {
	s, err := h.resolveSide(path)
	if err != nil {
		h.Logger.Warn("event outside both mirror roots", "path", path, "error", err)
		return
	}
	if syncpath.InSidecar(s.srcRoot, h.SidecarName, path) {
		return
	}

	dst, mapErr := syncpath.Map(s.srcRoot, s.dstRoot, path)
	if mapErr == nil {
		h.suppress(dst)
	}

	if kind == syncconfig.Created {
		err := action.CreateFile(s.srcRoot, path, s.dstRoot)
		logAction(s.logger, h.OnError, "create_file", path, err)
		if err == nil && mapErr == nil {
			warnUnsafePermissions(s.logger, dst)
		}
		return
	}
	sidecarRoot := filepath.Join(s.dstRoot, h.SidecarName)
	err := action.Patch(s.srcRoot, path, s.dstRoot, sidecarRoot)
	logAction(s.logger, h.OnError, "patch", path, err)
	if err == nil && mapErr == nil {
		warnUnsafePermissions(s.logger, dst)
	}
}
