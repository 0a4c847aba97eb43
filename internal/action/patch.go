package action

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gabstv/go-bsdiff/pkg/bsdiff"
	"github.com/gabstv/go-bsdiff/pkg/bspatch"
	"github.com/gofrs/flock"

	"github.com/syncdog/syncdog/internal/syncpath"
)

// Patch brings the destination file in line with the source by binary
// diff/patch rather than a full copy, implementing the four-step escalation:
// a missing destination or one larger than the source falls back to
// CreateFile (after clearing any stale sidecar patch); otherwise a diff is
// computed against the current destination, written into sidecarRoot, and
// applied in place; the sidecar patch file is removed once applied. A
// gofrs/flock exclusive lock on patchPath + ".lock" brackets the
// write-then-apply pair so two Patch calls for the same file do not
// interleave; the lock is advisory, does not hold off anything else that
// removes the sidecar, and its .lock file is left in the sidecar.
func Patch(srcRoot, srcPath, dstRoot, sidecarRoot string) error {
	dst, err := syncpath.Map(srcRoot, dstRoot, srcPath)
	if err != nil {
		return err
	}
	patchPath, err := syncpath.PatchPath(sidecarRoot, srcRoot, srcPath)
	if err != nil {
		return err
	}

	srcInfo, err := os.Stat(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("action: stat %s: %w", srcPath, err)
	}

	dstInfo, err := os.Stat(dst)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return CreateFile(srcRoot, srcPath, dstRoot)
	case err != nil:
		return fmt.Errorf("action: stat %s: %w", dst, err)
	case dstInfo.Size() > srcInfo.Size():
		if rmErr := os.Remove(dst); rmErr != nil {
			return fmt.Errorf("action: remove stale %s: %w", dst, rmErr)
		}
		if rmErr := os.Remove(patchPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return fmt.Errorf("action: remove stale patch %s: %w", patchPath, rmErr)
		}
		return CreateFile(srcRoot, srcPath, dstRoot)
	}

	if err := os.MkdirAll(filepath.Dir(patchPath), 0o755); err != nil {
		return fmt.Errorf("action: mkdir %s: %w", filepath.Dir(patchPath), err)
	}

	lock := flock.New(patchPath + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("action: lock %s: %w", patchPath, err)
	}
	defer lock.Unlock()

	if err := bsdiff.File(dst, srcPath, patchPath); err != nil {
		return fmt.Errorf("action: diff %s -> %s: %w", dst, srcPath, err)
	}

	tmp := dst + ".syncdog-patched"
	if err := bspatch.File(dst, tmp, patchPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("action: apply patch to %s: %w", dst, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("action: rename patched file into %s: %w", dst, err)
	}

	if err := os.Remove(patchPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("action: remove applied patch %s: %w", patchPath, err)
	}

	return nil
}
