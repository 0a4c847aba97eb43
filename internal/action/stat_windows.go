//go:build windows

package action

import (
	"errors"
	"syscall"
)

const errnoSharingViolation = syscall.Errno(32) // ERROR_SHARING_VIOLATION

// isSharingViolation reports whether err represents a Windows sharing
// violation — another process has the file open exclusively.
func isSharingViolation(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == errnoSharingViolation
}
