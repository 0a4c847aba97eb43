package syncpath

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestMap(t *testing.T) {
	got, err := Map("/a", "/b", "/a/dir/file.txt")
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	want := filepath.Join("/b", "dir", "file.txt")
	if got != want {
		t.Errorf("Map() = %q, want %q", got, want)
	}
}

func TestMap_Root(t *testing.T) {
	got, err := Map("/a", "/b", "/a")
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if got != "/b" {
		t.Errorf("Map(root) = %q, want /b", got)
	}
}

func TestMap_NotUnderRoot(t *testing.T) {
	_, err := Map("/a", "/b", "/other/file.txt")
	if !errors.Is(err, ErrNotUnderRoot) {
		t.Fatalf("expected ErrNotUnderRoot, got %v", err)
	}
}

func TestPatchPath(t *testing.T) {
	got, err := PatchPath("/sidecar", "/a", "/a/dir/file.txt")
	if err != nil {
		t.Fatalf("PatchPath failed: %v", err)
	}
	want := filepath.Join("/sidecar", "dir", "file.patch")
	if got != want {
		t.Errorf("PatchPath() = %q, want %q", got, want)
	}
}

func TestPatchPath_NotUnderRoot(t *testing.T) {
	_, err := PatchPath("/sidecar", "/a", "/other/file.txt")
	if !errors.Is(err, ErrNotUnderRoot) {
		t.Fatalf("expected ErrNotUnderRoot, got %v", err)
	}
}

func TestInSidecar(t *testing.T) {
	cases := []struct {
		p    string
		want bool
	}{
		{"/root/.syncdog", true},
		{"/root/.syncdog/dir/file.patch", true},
		{"/root/notes.txt", false},
		{"/root/.syncdogfake/x", false},
	}
	for _, c := range cases {
		if got := InSidecar("/root", ".syncdog", c.p); got != c.want {
			t.Errorf("InSidecar(%q) = %v, want %v", c.p, got, c.want)
		}
	}
}
