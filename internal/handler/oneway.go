package handler

import (
	"log/slog"
	"path/filepath"

	"github.com/syncdog/syncdog/internal/action"
	"github.com/syncdog/syncdog/internal/debounce"
	"github.com/syncdog/syncdog/internal/syncconfig"
	"github.com/syncdog/syncdog/internal/syncpath"
	"github.com/syncdog/syncdog/internal/watch"
)

// OneWay replicates every change on SrcRoot onto DstRoot. It never writes
// to SrcRoot.
type OneWay struct {
	SrcRoot     string
	DstRoot     string
	SidecarName string
	Table       *debounce.Table
	Logger      *slog.Logger
	OnError     func(error)
}

func (h *OneWay) sidecarRoot() string {
	return filepath.Join(h.DstRoot, h.SidecarName)
}

// Handle implements Handler.
func (h *OneWay) Handle(ev watch.Event) {
	if syncpath.InSidecar(h.SrcRoot, h.SidecarName, ev.Src) {
		return
	}

	switch ev.Kind {
	case syncconfig.Created:
		if ev.IsDirectory {
			logAction(h.Logger, h.OnError, "create_directory", ev.Src, action.CreateDirectory(h.SrcRoot, ev.Src, h.DstRoot))
			return
		}
		h.Table.Observe(ev.Src, syncconfig.Created)

	case syncconfig.Modified:
		if ev.IsDirectory {
			return
		}
		h.Table.Observe(ev.Src, syncconfig.Modified)

	case syncconfig.Deleted:
		h.Table.Cancel(ev.Src)
		logAction(h.Logger, h.OnError, "delete", ev.Src, action.Delete(h.SrcRoot, ev.Src, h.DstRoot))

	case syncconfig.Moved:
		h.Table.Cancel(ev.Src)
		logAction(h.Logger, h.OnError, "rename", ev.Src, action.Rename(h.SrcRoot, ev.Src, ev.Dst, h.DstRoot))
	}
}

// Stable implements Handler.
func (h *OneWay) Stable(path string, kind syncconfig.Kind) {
	if syncpath.InSidecar(h.SrcRoot, h.SidecarName, path) {
		return
	}

	dst, mapErr := syncpath.Map(h.SrcRoot, h.DstRoot, path)

	if kind == syncconfig.Created {
		err := action.CreateFile(h.SrcRoot, path, h.DstRoot)
		logAction(h.Logger, h.OnError, "create_file", path, err)
		if err == nil && mapErr == nil {
			warnUnsafePermissions(h.Logger, dst)
		}
		return
	}
	err := action.Patch(h.SrcRoot, path, h.DstRoot, h.sidecarRoot())
	logAction(h.Logger, h.OnError, "patch", path, err)
	if err == nil && mapErr == nil {
		warnUnsafePermissions(h.Logger, dst)
	}
}
