package syncconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDaemonConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "daemon.yaml")
	if err := os.WriteFile(path, []byte("log_level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadDaemonConfig(path)
	if err != nil {
		t.Fatalf("LoadDaemonConfig failed: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log_level debug, got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected default log_format text, got %s", cfg.LogFormat)
	}
	if cfg.LogMaxBytes != 10*1024*1024 {
		t.Errorf("expected default log_max_bytes, got %d", cfg.LogMaxBytes)
	}
}

func TestLoadDaemonConfig_MissingFile(t *testing.T) {
	_, err := LoadDaemonConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}
