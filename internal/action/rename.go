package action

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syncdog/syncdog/internal/syncpath"
)

// Rename moves the path mapped from src to the path mapped from dst, both
// under srcRoot/dstRoot. It tries os.Rename first; when that fails across a
// filesystem boundary (EXDEV on Unix, a distinct-volume error on Windows) it
// falls back to copy-then-remove, the same two-tier strategy mirrorshuttle
// documents for its own --direct flag.
func Rename(srcRoot, src, dst, dstRoot string) error {
	mappedSrc, err := syncpath.Map(srcRoot, dstRoot, src)
	if err != nil {
		return err
	}
	mappedDst, err := syncpath.Map(srcRoot, dstRoot, dst)
	if err != nil {
		return err
	}

	if _, err := os.Stat(mappedSrc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("action: stat %s: %w", mappedSrc, err)
	}

	if _, err := os.Stat(mappedDst); err == nil {
		// The remote side is already consistent: nothing to do.
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("action: stat %s: %w", mappedDst, err)
	}

	// The destination side may not yet have replicated a subdirectory the
	// move lands in (e.g. the move raced ahead of its own mkdir's event).
	if err := os.MkdirAll(filepath.Dir(mappedDst), 0o755); err != nil {
		return fmt.Errorf("action: mkdir %s: %w", filepath.Dir(mappedDst), err)
	}

	renameErr := os.Rename(mappedSrc, mappedDst)
	if renameErr == nil {
		return nil
	}
	if !isCrossDevice(renameErr) {
		return fmt.Errorf("action: rename %s -> %s: %w", mappedSrc, mappedDst, renameErr)
	}

	if err := copyFile(mappedSrc, mappedDst); err != nil {
		return fmt.Errorf("action: cross-device fallback copy %s -> %s: %w", mappedSrc, mappedDst, err)
	}
	if err := os.Remove(mappedSrc); err != nil {
		return fmt.Errorf("action: cross-device fallback remove %s: %w", mappedSrc, err)
	}
	return nil
}
