package syncconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadDaemonConfig loads the daemon's own ambient settings from a YAML file.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading daemon config file: %w", err)
	}

	var cfg DaemonConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing daemon config file: %w", err)
	}

	applyDaemonDefaults(&cfg)
	return &cfg, nil
}
