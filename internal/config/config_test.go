package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Routing.Grid != 1.27 {
		t.Errorf("Grid = %v", cfg.Routing.Grid)
	}
	if cfg.Routing.Tolerance != 0.1 {
		t.Errorf("Tolerance = %v", cfg.Routing.Tolerance)
	}
	if cfg.Routing.DetectCrossings {
		t.Error("Crossing detection should default to off")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[routing]
grid = 0.635
detect_crossings = true

[libraries]
paths = ["/usr/share/kicad/symbols", "/home/user/libs"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Routing.Grid != 0.635 {
		t.Errorf("Grid = %v", cfg.Routing.Grid)
	}
	// Unset keys keep their defaults.
	if cfg.Routing.Tolerance != 0.1 {
		t.Errorf("Tolerance = %v", cfg.Routing.Tolerance)
	}
	if !cfg.Routing.DetectCrossings {
		t.Error("detect_crossings not loaded")
	}
	if len(cfg.Libraries.Paths) != 2 {
		t.Errorf("Paths = %v", cfg.Libraries.Paths)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("Explicit missing file should be an error")
	}
}

func TestLoadUnknownKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[routing]\ngird = 1.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Typoed key should be rejected")
	}
}

func TestLoadNegativeValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[routing]\ngrid = -1.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Negative grid should be rejected")
	}
}
