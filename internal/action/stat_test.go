package action

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSampleSize_ExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	size, exists, transient, err := SampleSize(path)
	if err != nil {
		t.Fatalf("SampleSize: %v", err)
	}
	if !exists || transient {
		t.Fatalf("exists=%v transient=%v, want true/false", exists, transient)
	}
	if size != 5 {
		t.Fatalf("size=%d, want 5", size)
	}
}

func TestSampleSize_MissingFile(t *testing.T) {
	dir := t.TempDir()
	size, exists, transient, err := SampleSize(filepath.Join(dir, "ghost.txt"))
	if err != nil {
		t.Fatalf("expected nil error for missing file, got %v", err)
	}
	if exists || transient || size != 0 {
		t.Fatalf("exists=%v transient=%v size=%d, want false/false/0", exists, transient, size)
	}
}
