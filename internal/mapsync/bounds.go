package mapsync

import (
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-map/internal/feature"
)

// Bounds returns the box containing every Point and every vertex of the
// outer ring of each Polygon/MultiPolygon member. ok is false when no
// feature contributed a valid coordinate.
func Bounds(features []feature.Feature) (b orb.Bound, ok bool) {
	extend := func(p orb.Point) {
		if !feature.ValidLngLat(p) {
			return
		}
		if !ok {
			b, ok = p.Bound(), true
			return
		}
		b = b.Extend(p)
	}
	outer := func(poly orb.Polygon) {
		if len(poly) == 0 {
			return
		}
		for _, p := range poly[0] {
			extend(p)
		}
	}

	for _, f := range features {
		switch g := f.Geometry.(type) {
		case orb.Point:
			extend(g)
		case orb.Polygon:
			outer(g)
		case orb.MultiPolygon:
			for _, poly := range g {
				outer(poly)
			}
		}
	}
	return b, ok
}
