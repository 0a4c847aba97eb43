// Package syncpath maps a path under one sync root onto the matching path
// under another root. It never touches the filesystem.
package syncpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotUnderRoot is returned when a path is not a descendant of the
// expected root.
var ErrNotUnderRoot = errors.New("path is not under root")

// Map returns the path under rootDst that corresponds to p, a path under
// rootSrc.
func Map(rootSrc, rootDst, p string) (string, error) {
	rel, err := relativeTo(rootSrc, p)
	if err != nil {
		return "", err
	}
	return filepath.Join(rootDst, rel), nil
}

// PatchPath returns the path under sidecarRoot where the transient patch
// file for p (a path under rootSrc) should be written. The final path
// component has its extension replaced with ".patch".
func PatchPath(sidecarRoot, rootSrc, p string) (string, error) {
	rel, err := relativeTo(rootSrc, p)
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(rel)
	base := strings.TrimSuffix(rel, ext) + ".patch"
	return filepath.Join(sidecarRoot, base), nil
}

// relativeTo returns p's path relative to root, failing with
// ErrNotUnderRoot if p does not descend from root.
func relativeTo(root, p string) (string, error) {
	cleanRoot := filepath.Clean(root)
	cleanP := filepath.Clean(p)

	rel, err := filepath.Rel(cleanRoot, cleanP)
	if err != nil {
		return "", fmt.Errorf("%w: %s (root %s): %v", ErrNotUnderRoot, p, root, err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrNotUnderRoot, p, root)
	}

	return rel, nil
}

// InSidecar reports whether p lies inside the sidecar directory named
// sidecarName under root, regardless of depth.
func InSidecar(root, sidecarName, p string) bool {
	sidecarRoot := filepath.Join(root, sidecarName)
	cleanP := filepath.Clean(p)
	cleanSidecar := filepath.Clean(sidecarRoot)

	if cleanP == cleanSidecar {
		return true
	}
	return strings.HasPrefix(cleanP, cleanSidecar+string(filepath.Separator))
}
