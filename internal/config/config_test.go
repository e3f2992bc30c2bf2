package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.BaseMaps) != 5 || cfg.Fit.MaxZoom != 15 || cfg.Fit.Padding != 50 {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
zoom: 6
fit:
  padding: 20
  max_zoom: 12
base_maps:
  - id: osm
    name: OpenStreetMap
    url: https://tile.openstreetmap.org/{z}/{x}/{y}.png
    enabled: true
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Zoom != 6 || cfg.Fit.Padding != 20 || cfg.Fit.MaxZoom != 12 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if len(cfg.BaseMaps) != 1 || cfg.BaseMaps[0].ID != "osm" || !cfg.BaseMaps[0].Enabled {
		t.Fatalf("base maps=%+v", cfg.BaseMaps)
	}
	if cfg.Center[0] != 139.7675 {
		t.Fatalf("center=%v, want default", cfg.Center)
	}
}

func TestLoadRejectsDuplicateBaseMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "base_maps:\n  - {id: a, url: x}\n  - {id: a, url: y}\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("duplicate base map accepted")
	}
}
