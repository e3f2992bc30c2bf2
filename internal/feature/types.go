// Package feature turns uploaded CSV and GeoJSON payloads into normalized
// map features.
//
// A Feature is one Point, Polygon or MultiPolygon geometry plus a flat
// property bag. Every feature gets a synthetic id at parse time; ids are
// never derived from coordinates, so co-located features stay distinct.
package feature

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Reserved property keys written by the parser.
const (
	PropName        = "name"
	PropDescription = "description"
	PropID          = "fid"
)

// DefaultName is used when a row has no usable name value.
const DefaultName = "point"

// Feature is one geometry with its property bag.
type Feature struct {
	ID         string
	Geometry   orb.Geometry
	Properties Properties
}

// Clone returns a copy whose property bag can be modified independently.
// Geometry values are shared; callers never mutate them.
func (f Feature) Clone() Feature {
	return Feature{ID: f.ID, Geometry: f.Geometry, Properties: f.Properties.Clone()}
}

// Name returns the feature's display name.
func (f Feature) Name() string {
	if s, ok := f.Properties[PropName].(string); ok && s != "" {
		return s
	}
	return DefaultName
}

// Description returns the popup text, or "" if none.
func (f Feature) Description() string {
	s, _ := f.Properties[PropDescription].(string)
	return s
}

// GeoJSON converts the feature to an orb GeoJSON feature. The synthetic id
// is written both as the feature id and as the fid property so map styles
// can key feature state on it.
func (f Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry)
	gf.ID = f.ID
	for k, v := range f.Properties {
		gf.Properties[k] = v
	}
	gf.Properties[PropID] = f.ID
	return gf
}

// Collection wraps features into a FeatureCollection in order.
func Collection(features []Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		fc.Append(f.GeoJSON())
	}
	return fc
}

// Warning is a non-fatal, per-row validation problem. The row was dropped.
type Warning struct {
	Row    int    `json:"row" doc:"1-based data row or feature index"`
	Reason string `json:"reason" doc:"Why the row was skipped"`
}

// Result is the outcome of a successful parse.
type Result struct {
	Features []Feature
	Warnings []Warning
	// Columns is the resolved column mapping (CSV only).
	Columns Columns
}

// Skipped returns the number of dropped rows.
func (r Result) Skipped() int {
	return len(r.Warnings)
}
