// cmd/syncdogd/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/syncdog/syncdog/internal/engine"
	"github.com/syncdog/syncdog/internal/logging"
	"github.com/syncdog/syncdog/internal/syncconfig"
)

const defaultDaemonConfigPath = "/etc/syncdog/daemon.yaml"

func main() {
	mode := flag.String("mode", "", "sync mode: AtoB, BtoA, or Mirror")
	rootA := flag.String("a", "", "root A path")
	rootB := flag.String("b", "", "root B path")
	debounce := flag.Duration("debounce", 0, "debounce interval (0 uses the mode default)")
	sidecar := flag.String("sidecar", "", "sidecar directory name (default .syncdog)")
	configPath := flag.String("config", defaultDaemonConfigPath, "path to the daemon's own YAML settings")
	flag.Parse()

	daemonCfg, err := syncconfig.LoadDaemonConfig(*configPath)
	if err != nil {
		daemonCfg = &syncconfig.DaemonConfig{LogLevel: "info", LogFormat: "text", StatusListen: "127.0.0.1:0"}
	}

	var logOut io.Writer = os.Stdout
	if daemonCfg.LogFile != "" {
		logWriter, err := logging.NewRotatingWriter(daemonCfg.LogFile, daemonCfg.LogMaxBytes)
		if err != nil {
			fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
			os.Exit(1)
		}
		defer logWriter.Close()
		logOut = logWriter
	}

	logger := logging.NewLogger(daemonCfg.LogFormat, daemonCfg.LogLevel, logOut)

	cfg := syncconfig.SyncConfig{
		Mode:             syncconfig.Mode(*mode),
		RootA:            *rootA,
		RootB:            *rootB,
		DebounceInterval: *debounce,
		PatchSidecarName: *sidecar,
	}

	e := engine.New(cfg, logger)

	// engineCtx is what POST /start hands to Engine.Start, which only checks
	// it before starting. It is never cancelled: the engine is stopped by
	// e.Stop (POST /stop, or main on shutdown), so stopping it leaves the
	// control server up to take a later POST /start.
	engineCtx := context.Background()

	procCtx, procCancel := context.WithCancel(context.Background())
	defer procCancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		procCancel()
	}()

	// The engine only starts once syncdogctl (or an operator) asks it to,
	// over the control server below; a process restart alone does not
	// resync anything.
	go serveControl(procCtx, engineCtx, daemonCfg.StatusListen, e, logger)

	<-procCtx.Done()
	if err := e.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "error stopping engine: %v\n", err)
		os.Exit(1)
	}
}

// serveControl exposes the HTTP surface syncdogctl talks to: GET /status
// reports the engine's running state, POST /start starts it (idempotent —
// ErrAlreadyRunning is reported as a 409, not a crash), and POST /stop stops
// it. procCtx governs the whole process's lifetime (closed by a SIGINT or
// SIGTERM in main) and is what bounds the HTTP server itself; engineCtx is
// handed to Engine.Start and is never canceled, so a POST /stop calling
// e.Stop() directly leaves the process itself up to answer a later
// POST /start.
func serveControl(procCtx, engineCtx context.Context, addr string, e *engine.Engine, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		status := e.Status()
		resp := map[string]any{
			"running":    status.Running,
			"started_at": status.StartedAt,
		}
		if status.LastError != nil {
			resp["last_error"] = status.LastError.Error()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := e.Start(engineCtx); err != nil {
			if errors.Is(err, engine.ErrAlreadyRunning) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			logger.Error("engine start failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		logger.Info("engine started over HTTP")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/stop", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err := e.Stop(); err != nil {
			logger.Error("engine stop failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		logger.Info("engine stopped over HTTP")
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{Addr: addr, Handler: mux}
	logger.Info("starting control server", "address", addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("control server error", "error", err)
		}
	}()

	<-procCtx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

