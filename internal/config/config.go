// Package config handles configuration loading for the map server.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-map/internal/mapsync"
	"github.com/joeblew999/plat-map/internal/service"
)

// Config represents the root configuration file structure.
type Config struct {
	Center   [2]float64         `yaml:"center" json:"center"` // [Lon, Lat]
	Zoom     float64            `yaml:"zoom" json:"zoom"`
	Fit      mapsync.FitOptions `yaml:"fit" json:"fit"`
	BaseMaps []service.BaseMap  `yaml:"base_maps" json:"baseMaps"`
}

// Default returns the built-in configuration: centered on Tokyo with the
// GSI relief and hazard overlays available as base maps.
func Default() *Config {
	return &Config{
		Center: [2]float64{139.7675, 35.6811},
		Zoom:   4,
		Fit:    mapsync.DefaultFitOptions,
		BaseMaps: []service.BaseMap{
			{ID: "relief", Name: "色別標高図", URL: "https://cyberjapandata.gsi.go.jp/xyz/relief/{z}/{x}/{y}.png"},
			{ID: "flood", Name: "洪水浸水想定区域", URL: "https://disaportaldata.gsi.go.jp/raster/01_flood_l2_shinsuishin_kuni_data/{z}/{x}/{y}.png"},
			{ID: "tsunami", Name: "津波浸水想定", URL: "https://disaportaldata.gsi.go.jp/raster/04_tsunami_newlegend_data/{z}/{x}/{y}.png"},
			{ID: "debris", Name: "土砂災害警戒区域（土石流）", URL: "https://disaportaldata.gsi.go.jp/raster/05_dosekiryukeikaikuiki/{z}/{x}/{y}.png"},
			{ID: "avalanche", Name: "雪崩危険箇所", URL: "https://disaportaldata.gsi.go.jp/raster/05_nadarekikenkasyo/{z}/{x}/{y}.png"},
		},
	}
}

// Load reads the YAML configuration file at path. A missing file yields
// the defaults; fields absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks base-map entries for missing or duplicate ids and urls.
func (c *Config) Validate() error {
	seen := map[string]bool{}
	for i, m := range c.BaseMaps {
		if m.ID == "" || m.URL == "" {
			return fmt.Errorf("base map %d: id and url are required", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("base map %q: duplicate id", m.ID)
		}
		seen[m.ID] = true
	}
	if c.Fit.MaxZoom < 0 || c.Fit.Padding < 0 {
		return fmt.Errorf("fit: padding and max_zoom must not be negative")
	}
	return nil
}
