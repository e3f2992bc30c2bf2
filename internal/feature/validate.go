package feature

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ValidLngLat reports whether p is a finite coordinate within WGS84 ranges.
func ValidLngLat(p orb.Point) bool {
	lng, lat := p[0], p[1]
	if math.IsNaN(lng) || math.IsNaN(lat) || math.IsInf(lng, 0) || math.IsInf(lat, 0) {
		return false
	}
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

// validateGeometry checks that g is a supported type with valid coordinates.
func validateGeometry(g orb.Geometry) error {
	switch t := g.(type) {
	case nil:
		return fmt.Errorf("missing geometry")
	case orb.Point:
		if !ValidLngLat(t) {
			return fmt.Errorf("invalid coordinate %v", [2]float64(t))
		}
	case orb.Polygon:
		return validatePolygon(t)
	case orb.MultiPolygon:
		if len(t) == 0 {
			return fmt.Errorf("empty multipolygon")
		}
		for _, poly := range t {
			if err := validatePolygon(poly); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported geometry type %s", g.GeoJSONType())
	}
	return nil
}

func validatePolygon(poly orb.Polygon) error {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return fmt.Errorf("empty polygon")
	}
	for _, ring := range poly {
		for _, p := range ring {
			if !ValidLngLat(p) {
				return fmt.Errorf("invalid coordinate %v", [2]float64(p))
			}
		}
	}
	return nil
}
