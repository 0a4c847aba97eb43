//go:build !windows

package action

// isSharingViolation reports whether err represents a Windows sharing
// violation. On other platforms that condition doesn't exist — a busy file
// there shows up as fs.ErrPermission, already handled by SampleSize.
func isSharingViolation(err error) bool {
	return false
}
