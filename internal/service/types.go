// Package service contains the session state of the map: the ordered layer
// store, its change bus and the base-map catalogue.
package service

import "github.com/joeblew999/plat-map/internal/feature"

// Layer is a named, toggleable group of features from one upload.
// A Layer owns its feature slice; the store never shares it.
type Layer struct {
	ID       string
	Name     string
	Features []feature.Feature
	Visible  bool
	Opacity  float64
}

// Summary returns the panel/API view of the layer.
func (l Layer) Summary() LayerSummary {
	return LayerSummary{
		ID:           l.ID,
		Name:         l.Name,
		Visible:      l.Visible,
		Opacity:      l.Opacity,
		FeatureCount: len(l.Features),
	}
}

// LayerSummary is a layer without its feature data.
type LayerSummary struct {
	ID           string  `json:"id" doc:"Unique layer identifier" example:"0190f5e2-7c1a-7d3e-9b2a-1c4d5e6f7a8b"`
	Name         string  `json:"name" doc:"Display name" example:"stations.csv"`
	Visible      bool    `json:"visible" doc:"Whether the layer is rendered"`
	Opacity      float64 `json:"opacity" minimum:"0" maximum:"1" doc:"Layer opacity (0-1)" example:"1"`
	FeatureCount int     `json:"featureCount" doc:"Number of features in the layer"`
}

// BaseMap is a background raster tile layer, independent of uploaded layers.
type BaseMap struct {
	ID      string  `json:"id" yaml:"id" doc:"Base map identifier" example:"relief"`
	Name    string  `json:"name" yaml:"name" doc:"Display name" example:"色別標高図"`
	URL     string  `json:"url" yaml:"url" doc:"XYZ tile URL template" example:"https://cyberjapandata.gsi.go.jp/xyz/relief/{z}/{x}/{y}.png"`
	Opacity float64 `json:"opacity,omitempty" yaml:"opacity,omitempty" minimum:"0" maximum:"1" doc:"Raster opacity (0-1)"`
	Enabled bool    `json:"enabled" yaml:"enabled,omitempty" doc:"Whether the base map is shown"`
}
