// Package engine owns the complete lifecycle of one replication run: the
// watcher, the debounce table(s), the mirror suppression set, and the
// single dispatch goroutine that serializes every action against them.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/syncdog/syncdog/internal/debounce"
	"github.com/syncdog/syncdog/internal/handler"
	"github.com/syncdog/syncdog/internal/security"
	"github.com/syncdog/syncdog/internal/suppress"
	"github.com/syncdog/syncdog/internal/syncconfig"
	"github.com/syncdog/syncdog/internal/watch"
)

// ErrAlreadyRunning is returned by Start when the engine is already up, in
// this process or (via the sidecar lock file) another one.
var ErrAlreadyRunning = errors.New("engine: already running")

// sweepInterval bounds how long a suppression entry can outlive a write
// that never produced the echo event it was waiting for — e.g. because the
// write landed outside any watched subtree.
const sweepInterval = time.Second

// Status reports the engine's current lifecycle state.
type Status struct {
	Running   bool
	LastError error
	StartedAt time.Time
}

// Engine drives one configured sync run. All of its mutable state —
// debounce tables, suppression set, handler — is owned exclusively by its
// single dispatch goroutine; Start/Stop/Status only touch the guarded
// status fields.
type Engine struct {
	cfg    syncconfig.SyncConfig
	logger *slog.Logger

	mu        sync.RWMutex
	running   bool
	lastErr   error
	startedAt time.Time

	watcher     watch.Watcher
	events      chan watch.Event
	actions     chan func()
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	locks       []*flock.Flock
	sidecars    []string
	tables      []*debounce.Table
	suppression *suppress.Set // non-nil only in Mirror mode
}

// New creates an Engine for cfg. Defaults are applied immediately so
// Status and logging reflect the values that will actually be used.
func New(cfg syncconfig.SyncConfig, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg.WithDefaults(),
		logger: logger,
	}
}

// Start validates cfg, creates the sidecar directories, wires the
// mode-appropriate handler and debounce table(s), and starts the watcher.
// It returns once the dispatch goroutine is running.
func (e *Engine) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.mu.Unlock()

	if err := syncconfig.ValidateConfig(e.cfg); err != nil {
		return fmt.Errorf("engine: invalid configuration: %w", err)
	}

	sidecars := e.sidecarRoots()
	for _, dir := range sidecars {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("engine: creating sidecar %s: %w", dir, err)
		}
		if err := security.ValidateDirectoryPermissions(dir); err != nil {
			e.logger.Warn("sidecar directory permissions wider than requested", "dir", dir, "error", err)
		}
	}

	locks, err := acquireLocks(sidecars)
	if err != nil {
		return err
	}

	roots := e.watchRoots()
	w, err := watch.New(roots)
	if err != nil {
		releaseLocks(locks)
		return fmt.Errorf("engine: creating watcher: %w", err)
	}

	dispatchCtx, cancel := context.WithCancel(context.Background())
	e.events = make(chan watch.Event, watch.EventBufferSize)
	e.actions = make(chan func(), watch.EventBufferSize)
	e.watcher = w
	e.cancel = cancel
	e.locks = locks
	e.sidecars = sidecars

	h := e.newHandler()

	if err := w.Start(e.events); err != nil {
		cancel()
		releaseLocks(locks)
		return fmt.Errorf("engine: starting watcher: %w", err)
	}

	e.wg.Add(1)
	go e.run(dispatchCtx, h)

	e.mu.Lock()
	e.running = true
	e.lastErr = nil
	e.startedAt = time.Now()
	e.mu.Unlock()

	return nil
}

// Stop signals the watcher and dispatch goroutine to shut down, drains
// pending debounce timers, removes the sidecar directories, and releases
// the instance lock(s). It blocks until everything has joined and is safe
// to call more than once.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	e.mu.Unlock()

	if err := e.watcher.Stop(); err != nil {
		e.logger.Warn("error stopping watcher", "error", err)
	}
	for _, t := range e.tables {
		t.Drain()
	}
	e.cancel()
	e.wg.Wait()

	for _, dir := range e.sidecars {
		if err := os.RemoveAll(dir); err != nil {
			e.logger.Warn("error removing sidecar directory", "dir", dir, "error", err)
		}
	}
	releaseLocks(e.locks)

	return nil
}

// Status reports whether the engine is running and the last error it
// surfaced, if any.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{Running: e.running, LastError: e.lastErr, StartedAt: e.startedAt}
}

func (e *Engine) reportError(err error) {
	e.mu.Lock()
	e.lastErr = err
	e.mu.Unlock()
}

// post queues fn to run on the dispatch goroutine. Called from debounce
// timer callbacks, never from the dispatch goroutine itself.
func (e *Engine) post(fn func()) {
	select {
	case e.actions <- fn:
	default:
		e.logger.Warn("dispatch queue full, dropping scheduled action")
	}
}

// run is the engine's single dispatch goroutine: every mutation of the
// debounce tables, the suppression set, and the handler's own state happens
// here, in FIFO arrival order, which is the correctness guarantee the
// suppression set and debounce table depend on.
func (e *Engine) run(ctx context.Context, h handler.Handler) {
	defer e.wg.Done()

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-e.events:
			if !ok {
				return
			}
			h.Handle(ev)

		case fn, ok := <-e.actions:
			if !ok {
				return
			}
			fn()

		case <-ticker.C:
			if e.suppression != nil {
				e.suppression.Sweep(time.Now())
			}

		case <-ctx.Done():
			return
		}
	}
}

func (e *Engine) sidecarRoots() []string {
	switch e.cfg.Mode {
	case syncconfig.AtoB:
		return []string{filepath.Join(e.cfg.RootB, e.cfg.PatchSidecarName)}
	case syncconfig.BtoA:
		return []string{filepath.Join(e.cfg.RootA, e.cfg.PatchSidecarName)}
	default: // Mirror
		return []string{
			filepath.Join(e.cfg.RootA, e.cfg.PatchSidecarName),
			filepath.Join(e.cfg.RootB, e.cfg.PatchSidecarName),
		}
	}
}

func (e *Engine) watchRoots() []string {
	switch e.cfg.Mode {
	case syncconfig.AtoB:
		return []string{e.cfg.RootA}
	case syncconfig.BtoA:
		return []string{e.cfg.RootB}
	default:
		return []string{e.cfg.RootA, e.cfg.RootB}
	}
}

func acquireLocks(sidecars []string) ([]*flock.Flock, error) {
	var locks []*flock.Flock
	for _, dir := range sidecars {
		fl := flock.New(filepath.Join(dir, ".lock"))
		ok, err := fl.TryLock()
		if err != nil {
			releaseLocks(locks)
			return nil, fmt.Errorf("engine: locking %s: %w", dir, err)
		}
		if !ok {
			releaseLocks(locks)
			return nil, ErrAlreadyRunning
		}
		locks = append(locks, fl)
	}
	return locks, nil
}

func releaseLocks(locks []*flock.Flock) {
	for _, fl := range locks {
		fl.Unlock()
	}
}
