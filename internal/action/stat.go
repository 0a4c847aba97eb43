package action

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// SampleSize is the StatFunc the debounce table samples a candidate file
// with: open the file read-only, seek to end, read the position, close.
// A permission or sharing violation is reported as transient (the file is
// still in flight, retry later); a missing file reports exists=false.
func SampleSize(path string) (size int64, exists bool, transient bool, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		if errors.Is(openErr, fs.ErrNotExist) {
			return 0, false, false, nil
		}
		if errors.Is(openErr, fs.ErrPermission) || isSharingViolation(openErr) {
			return 0, false, true, openErr
		}
		return 0, false, false, openErr
	}
	defer f.Close()

	n, seekErr := f.Seek(0, io.SeekEnd)
	if seekErr != nil {
		return 0, false, true, seekErr
	}
	return n, true, false, nil
}
