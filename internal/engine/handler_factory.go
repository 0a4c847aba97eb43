package engine

import (
	"github.com/syncdog/syncdog/internal/action"
	"github.com/syncdog/syncdog/internal/debounce"
	"github.com/syncdog/syncdog/internal/handler"
	"github.com/syncdog/syncdog/internal/logging"
	"github.com/syncdog/syncdog/internal/suppress"
	"github.com/syncdog/syncdog/internal/syncconfig"
)

// newHandler builds the mode-appropriate handler and its debounce table(s),
// recording the tables (for Drain on Stop) and, in Mirror mode, the
// suppression set (for the periodic sweep in run). Every debounce table's
// stable callback posts the actual replication action back onto the
// dispatch goroutine via e.post, rather than running it inline on the
// timer goroutine.
func (e *Engine) newHandler() handler.Handler {
	switch e.cfg.Mode {
	case syncconfig.AtoB:
		return e.newOneWay(e.cfg.RootA, e.cfg.RootB)
	case syncconfig.BtoA:
		return e.newOneWay(e.cfg.RootB, e.cfg.RootA)
	default:
		return e.newMirror()
	}
}

func (e *Engine) newOneWay(srcRoot, dstRoot string) handler.Handler {
	h := &handler.OneWay{
		SrcRoot:     srcRoot,
		DstRoot:     dstRoot,
		SidecarName: e.cfg.PatchSidecarName,
		Logger:      logging.WithRoot(e.logger, srcRoot),
		OnError:     e.reportError,
	}
	h.Table = debounce.New(e.cfg.DebounceInterval, action.SampleSize, func(path string, kind syncconfig.Kind) {
		e.post(func() { h.Stable(path, kind) })
	})
	e.tables = append(e.tables, h.Table)
	return h
}

func (e *Engine) newMirror() handler.Handler {
	s := suppress.New()
	h := &handler.Mirror{
		RootA:          e.cfg.RootA,
		RootB:          e.cfg.RootB,
		SidecarName:    e.cfg.PatchSidecarName,
		Suppression:    s,
		SuppressionTTL: e.cfg.DebounceInterval,
		Logger:         e.logger,
		LoggerA:        logging.WithRoot(e.logger, e.cfg.RootA),
		LoggerB:        logging.WithRoot(e.logger, e.cfg.RootB),
		OnError:        e.reportError,
	}
	h.TableAtoB = debounce.New(e.cfg.DebounceInterval, action.SampleSize, func(path string, kind syncconfig.Kind) {
		e.post(func() { h.Stable(path, kind) })
	})
	h.TableBtoA = debounce.New(e.cfg.DebounceInterval, action.SampleSize, func(path string, kind syncconfig.Kind) {
		e.post(func() { h.Stable(path, kind) })
	})
	e.tables = append(e.tables, h.TableAtoB, h.TableBtoA)
	e.suppression = s
	return h
}
