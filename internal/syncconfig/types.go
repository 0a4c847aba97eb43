// Package syncconfig holds the immutable configuration types that drive the
// replication engine, plus the daemon's own YAML-backed settings.
package syncconfig

import "time"

// Mode selects which side is authoritative.
type Mode string

const (
	AtoB   Mode = "AtoB"
	BtoA   Mode = "BtoA"
	Mirror Mode = "Mirror"
)

// Kind enumerates the normalized event kinds the watcher emits.
type Kind string

const (
	Created  Kind = "created"
	Modified Kind = "modified"
	Deleted  Kind = "deleted"
	Moved    Kind = "moved"
)

// DefaultSidecarName is the hidden directory holding transient patch files.
const DefaultSidecarName = ".syncdog"

// DefaultDebounceOneWay and DefaultDebounceMirror are the per-spec defaults.
const (
	DefaultDebounceOneWay = 500 * time.Millisecond
	DefaultDebounceMirror = 750 * time.Millisecond
)

// SyncConfig is the immutable configuration for one engine run. It is
// supplied directly by the driver (CLI flags or an embedding caller), never
// loaded from YAML — the daemon's own settings live in DaemonConfig instead.
type SyncConfig struct {
	Mode             Mode
	RootA            string
	RootB            string
	DebounceInterval time.Duration
	PatchSidecarName string
}

// WithDefaults returns a copy of cfg with zero-valued fields filled in from
// the mode-appropriate defaults.
func (c SyncConfig) WithDefaults() SyncConfig {
	if c.PatchSidecarName == "" {
		c.PatchSidecarName = DefaultSidecarName
	}
	if c.DebounceInterval == 0 {
		if c.Mode == Mirror {
			c.DebounceInterval = DefaultDebounceMirror
		} else {
			c.DebounceInterval = DefaultDebounceOneWay
		}
	}
	return c
}

// DaemonConfig is the long-running process's own ambient configuration,
// loaded from a YAML file. It never describes what to sync — only how the
// daemon logs and exposes status.
type DaemonConfig struct {
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	StatusListen string `yaml:"status_listen"`
	LogFile      string `yaml:"log_file"`
	LogMaxBytes  int64  `yaml:"log_max_bytes"`
}

func applyDaemonDefaults(cfg *DaemonConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.StatusListen == "" {
		cfg.StatusListen = "127.0.0.1:0"
	}
	if cfg.LogMaxBytes == 0 {
		cfg.LogMaxBytes = 10 * 1024 * 1024
	}
}
