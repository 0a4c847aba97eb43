package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/syncdog/syncdog/internal/syncconfig"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %s", timeout)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func fileContains(path, want string) bool {
	data, err := os.ReadFile(path)
	return err == nil && string(data) == want
}

func TestEngine_StartStop_Idempotent(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()

	e := New(syncconfig.SyncConfig{
		Mode:             syncconfig.AtoB,
		RootA:            rootA,
		RootB:            rootB,
		DebounceInterval: 30 * time.Millisecond,
	}, testLogger())

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := e.Start(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning on second Start, got %v", err)
	}

	status := e.Status()
	if !status.Running {
		t.Fatal("expected status.Running true after Start")
	}

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if err := e.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op, got: %v", err)
	}

	if e.Status().Running {
		t.Fatal("expected status.Running false after Stop")
	}
}

func TestEngine_SecondInstanceRefusedViaLock(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	cfg := syncconfig.SyncConfig{
		Mode:             syncconfig.AtoB,
		RootA:            rootA,
		RootB:            rootB,
		DebounceInterval: 30 * time.Millisecond,
	}

	e1 := New(cfg, testLogger())
	if err := e1.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer e1.Stop()

	e2 := New(cfg, testLogger())
	err := e2.Start(context.Background())
	if err == nil {
		e2.Stop()
		t.Fatal("expected second engine instance to fail acquiring the sidecar lock")
	}
}

func TestEngine_OneWay_CreatedFileReplicates(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()

	e := New(syncconfig.SyncConfig{
		Mode:             syncconfig.AtoB,
		RootA:            rootA,
		RootB:            rootB,
		DebounceInterval: 30 * time.Millisecond,
	}, testLogger())

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer e.Stop()

	srcPath := filepath.Join(rootA, "hello.txt")
	if err := os.WriteFile(srcPath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	dstPath := filepath.Join(rootB, "hello.txt")
	waitFor(t, 2*time.Second, func() bool { return fileContains(dstPath, "hello") })
}

func TestEngine_OneWay_DeletedFileRemoves(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()

	e := New(syncconfig.SyncConfig{
		Mode:             syncconfig.AtoB,
		RootA:            rootA,
		RootB:            rootB,
		DebounceInterval: 30 * time.Millisecond,
	}, testLogger())

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer e.Stop()

	srcPath := filepath.Join(rootA, "gone.txt")
	if err := os.WriteFile(srcPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dstPath := filepath.Join(rootB, "gone.txt")
	waitFor(t, 2*time.Second, func() bool { return fileExists(dstPath) })

	if err := os.Remove(srcPath); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool { return !fileExists(dstPath) })
}

func TestEngine_Mirror_ReplicatesBothDirectionsWithoutEcho(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()

	e := New(syncconfig.SyncConfig{
		Mode:             syncconfig.Mirror,
		RootA:            rootA,
		RootB:            rootB,
		DebounceInterval: 30 * time.Millisecond,
	}, testLogger())

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer e.Stop()

	aPath := filepath.Join(rootA, "from-a.txt")
	if err := os.WriteFile(aPath, []byte("from a"), 0o644); err != nil {
		t.Fatal(err)
	}
	bMirrored := filepath.Join(rootB, "from-a.txt")
	waitFor(t, 2*time.Second, func() bool { return fileContains(bMirrored, "from a") })

	bPath := filepath.Join(rootB, "from-b.txt")
	if err := os.WriteFile(bPath, []byte("from b"), 0o644); err != nil {
		t.Fatal(err)
	}
	aMirrored := filepath.Join(rootA, "from-b.txt")
	waitFor(t, 2*time.Second, func() bool { return fileContains(aMirrored, "from b") })

	// Give any echo event from the mirrored writes a chance to arrive; the
	// suppression set should have dropped it rather than looping forever.
	time.Sleep(300 * time.Millisecond)
	if got, err := os.ReadFile(aPath); err != nil || string(got) != "from a" {
		t.Fatalf("expected source untouched by echo, got %q err %v", got, err)
	}
	if got, err := os.ReadFile(bPath); err != nil || string(got) != "from b" {
		t.Fatalf("expected source untouched by echo, got %q err %v", got, err)
	}
}

func TestEngine_InvalidConfigRejected(t *testing.T) {
	rootA := t.TempDir()

	e := New(syncconfig.SyncConfig{
		Mode:  syncconfig.AtoB,
		RootA: rootA,
		RootB: rootA,
	}, testLogger())

	if err := e.Start(context.Background()); err == nil {
		t.Fatal("expected Start to reject equal roots")
	}
}
