package handler

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/syncdog/syncdog/internal/action"
	"github.com/syncdog/syncdog/internal/debounce"
	"github.com/syncdog/syncdog/internal/syncconfig"
	"github.com/syncdog/syncdog/internal/watch"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newOneWay(t *testing.T, srcRoot, dstRoot string) *OneWay {
	t.Helper()
	h := &OneWay{
		SrcRoot:     srcRoot,
		DstRoot:     dstRoot,
		SidecarName: syncconfig.DefaultSidecarName,
		Logger:      testLogger(),
	}
	h.Table = debounce.New(20*time.Millisecond, action.SampleSize, h.Stable)
	return h
}

func TestOneWay_CreatedFileReplicatesAfterStable(t *testing.T) {
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	h := newOneWay(t, srcRoot, dstRoot)

	srcPath := filepath.Join(srcRoot, "a.txt")
	if err := os.WriteFile(srcPath, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	h.Handle(watch.Event{Kind: syncconfig.Created, Src: srcPath})

	time.Sleep(80 * time.Millisecond)

	got, err := os.ReadFile(filepath.Join(dstRoot, "a.txt"))
	if err != nil {
		t.Fatalf("expected replicated file: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestOneWay_CreatedFileWithUnsafePermissionsStillReplicates(t *testing.T) {
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	h := newOneWay(t, srcRoot, dstRoot)

	srcPath := filepath.Join(srcRoot, "world-writable.txt")
	if err := os.WriteFile(srcPath, []byte("hello"), 0o646); err != nil {
		t.Fatal(err)
	}
	// WriteFile's mode is filtered by the umask; set it explicitly.
	if err := os.Chmod(srcPath, 0o646); err != nil {
		t.Fatal(err)
	}

	h.Handle(watch.Event{Kind: syncconfig.Created, Src: srcPath})
	time.Sleep(80 * time.Millisecond)

	// A source file with world-writable permissions produces a destination
	// that inherits them; warnUnsafePermissions logs that rather than
	// blocking the replication.
	got, err := os.ReadFile(filepath.Join(dstRoot, "world-writable.txt"))
	if err != nil {
		t.Fatalf("expected replicated file despite unsafe permissions: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q", got)
	}
}

func TestOneWay_CreatedDirectoryReplicatesImmediately(t *testing.T) {
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	h := newOneWay(t, srcRoot, dstRoot)

	dirPath := filepath.Join(srcRoot, "sub")
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		t.Fatal(err)
	}

	h.Handle(watch.Event{Kind: syncconfig.Created, Src: dirPath, IsDirectory: true})

	if _, err := os.Stat(filepath.Join(dstRoot, "sub")); err != nil {
		t.Fatalf("expected directory created immediately: %v", err)
	}
}

func TestOneWay_SidecarEventsIgnored(t *testing.T) {
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	h := newOneWay(t, srcRoot, dstRoot)

	sidecarPath := filepath.Join(srcRoot, syncconfig.DefaultSidecarName, "x.patch")
	h.Handle(watch.Event{Kind: syncconfig.Created, Src: sidecarPath})

	time.Sleep(60 * time.Millisecond)
	if h.Table.Len() != 0 {
		t.Fatalf("expected sidecar event never tracked, table has %d entries", h.Table.Len())
	}
}

func TestOneWay_DeletedCancelsDebounceAndRemoves(t *testing.T) {
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	h := newOneWay(t, srcRoot, dstRoot)

	srcPath := filepath.Join(srcRoot, "a.txt")
	if err := os.WriteFile(srcPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dstRoot, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	h.Handle(watch.Event{Kind: syncconfig.Created, Src: srcPath})
	h.Handle(watch.Event{Kind: syncconfig.Deleted, Src: srcPath})

	if h.Table.Len() != 0 {
		t.Fatalf("expected debounce entry cancelled, got %d", h.Table.Len())
	}

	time.Sleep(60 * time.Millisecond)
	if _, err := os.Stat(filepath.Join(dstRoot, "a.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected destination removed, err=%v", err)
	}
}

func TestOneWay_MovedRenamesDestination(t *testing.T) {
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	h := newOneWay(t, srcRoot, dstRoot)

	if err := os.WriteFile(filepath.Join(dstRoot, "old.txt"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(srcRoot, "old.txt")
	newPath := filepath.Join(srcRoot, "new.txt")
	h.Handle(watch.Event{Kind: syncconfig.Moved, Src: oldPath, Dst: newPath})

	if _, err := os.Stat(filepath.Join(dstRoot, "new.txt")); err != nil {
		t.Fatalf("expected renamed destination: %v", err)
	}
}

func TestOneWay_ModifiedFilePatchesAfterStable(t *testing.T) {
	srcRoot := t.TempDir()
	dstRoot := t.TempDir()
	h := newOneWay(t, srcRoot, dstRoot)

	srcPath := filepath.Join(srcRoot, "a.txt")
	if err := os.WriteFile(filepath.Join(dstRoot, "a.txt"), []byte("version1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(srcPath, []byte("version1-updated"), 0o644); err != nil {
		t.Fatal(err)
	}

	h.Handle(watch.Event{Kind: syncconfig.Modified, Src: srcPath})

	time.Sleep(80 * time.Millisecond)

	got, err := os.ReadFile(filepath.Join(dstRoot, "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "version1-updated" {
		t.Fatalf("got %q", got)
	}
}
