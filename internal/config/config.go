// Package config loads tool configuration from a TOML file, falling back to
// built-in defaults when no file is present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the settings shared by the command-line tools.
type Config struct {
	Routing   RoutingConfig `toml:"routing"`
	Libraries LibraryConfig `toml:"libraries"`
}

// RoutingConfig tunes wire routing and junction detection.
type RoutingConfig struct {
	Grid            float64 `toml:"grid"`
	Tolerance       float64 `toml:"tolerance"`
	DetectCrossings bool    `toml:"detect_crossings"`
}

// LibraryConfig lists symbol library search directories.
type LibraryConfig struct {
	Paths []string `toml:"paths"`
}

// Default returns the built-in configuration: 1.27 mm grid, 0.1 mm tolerance,
// crossing detection off, no library paths.
func Default() *Config {
	return &Config{
		Routing: RoutingConfig{
			Grid:      1.27,
			Tolerance: 0.1,
		},
	}
}

// Load reads configuration from path. An empty path tries the default
// location and silently falls back to Default when nothing is there; an
// explicit path that cannot be read is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultPath()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
	}
	if cfg.Routing.Grid < 0 || cfg.Routing.Tolerance < 0 {
		return nil, fmt.Errorf("config: %s: grid and tolerance must be non-negative", path)
	}
	return cfg, nil
}

// defaultPath returns ~/.config/otsch/config.toml, or "" when the home
// directory is unknown.
func defaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "otsch", "config.toml")
}
