// Package action implements the replication primitives the engine dispatches
// once a watched path has settled: copying a file or directory across to the
// mirrored root, removing one that vanished, renaming in place, and patching
// an existing destination from a byte-level diff.
package action

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/syncdog/syncdog/internal/syncpath"
)

// CreateFile copies srcPath (a path under srcRoot) to the matching path
// under dstRoot, creating any missing parent directories.
func CreateFile(srcRoot, srcPath, dstRoot string) error {
	dst, err := syncpath.Map(srcRoot, dstRoot, srcPath)
	if err != nil {
		return err
	}
	return copyFile(srcPath, dst)
}

// CreateDirectory creates the matching directory under dstRoot and
// recursively seed-copies every file already present under srcPath. A plain
// mkdir would silently drop files an editor or archive extractor placed in
// one atomic directory move.
func CreateDirectory(srcRoot, srcPath, dstRoot string) error {
	dst, err := syncpath.Map(srcRoot, dstRoot, srcPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return fmt.Errorf("action: mkdir %s: %w", dst, err)
	}

	return filepath.WalkDir(srcPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == srcPath {
			return nil
		}

		target, mapErr := syncpath.Map(srcRoot, dstRoot, path)
		if mapErr != nil {
			return mapErr
		}
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

// Delete removes the path matching srcPath under dstRoot, whether it is a
// file or a directory. A missing destination is not an error — the two
// sides were already in sync.
func Delete(srcRoot, srcPath, dstRoot string) error {
	dst, err := syncpath.Map(srcRoot, dstRoot, srcPath)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dst); err != nil {
		return fmt.Errorf("action: remove %s: %w", dst, err)
	}
	return nil
}

// copyFile copies src to dst, creating dst's parent directory and
// preserving src's mode bits and modification time. The copy is written to
// a temporary file in dst's directory first and renamed into place, so a
// reader of dst never observes a partial write.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("action: stat %s: %w", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("action: mkdir %s: %w", filepath.Dir(dst), err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("action: open %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".syncdog-tmp-*")
	if err != nil {
		return fmt.Errorf("action: create temp for %s: %w", dst, err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("action: copy %s -> %s: %w", src, dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("action: close temp for %s: %w", dst, err)
	}
	if err := os.Chmod(tmpPath, info.Mode()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("action: chmod %s: %w", dst, err)
	}
	if err := os.Chtimes(tmpPath, info.ModTime(), info.ModTime()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("action: chtimes %s: %w", dst, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("action: rename temp into %s: %w", dst, err)
	}
	return nil
}
