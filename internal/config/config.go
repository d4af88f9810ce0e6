// Package config loads the optional user configuration file. Flags override
// config values, which override built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/imdanielpiva/tokenstats/internal/types"
)

// Config is ~/.config/tokenstats/config.yaml. All fields are optional.
type Config struct {
	// CacheDir overrides the user cache directory for scan caches.
	CacheDir string `yaml:"cache_dir"`
	// Timezone is an IANA name used for day attribution (default: system).
	Timezone string `yaml:"timezone"`
	// Providers to scan when --provider is not given (default: all).
	Providers []string `yaml:"providers"`
	// Roots overrides provider log roots by provider name.
	Roots map[string]string `yaml:"roots"`
	// RefreshMinIntervalSeconds rate-limits rescans for callers that poll,
	// like the live monitor.
	RefreshMinIntervalSeconds int `yaml:"refresh_min_interval_seconds"`
}

// DefaultPath is the standard config location; a missing file is not an error.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tokenstats", "config.yaml"), nil
}

// Load reads a config file. A missing file yields a zero Config; a malformed
// one is a real error, since silently ignoring a typo'd config would be worse.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", types.ErrInvalidConfig, path, err)
	}
	return cfg, nil
}
