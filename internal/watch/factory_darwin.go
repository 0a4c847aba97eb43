//go:build darwin

package watch

// New creates the platform-appropriate recursive watcher.
func New(roots []string) (Watcher, error) {
	return NewFseventsWatcher(roots)
}
