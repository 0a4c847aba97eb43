//go:build !windows

package action

import (
	"errors"
	"os"
	"syscall"
)

// isCrossDevice reports whether err is os.Rename's EXDEV failure — source
// and destination live on different filesystems, so the rename must fall
// back to copy+remove.
func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	return errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV)
}
