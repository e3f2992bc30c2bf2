package feature

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

type envelope struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// ParseGeoJSON accepts a FeatureCollection or a single Feature. Any other
// top-level type is a format error. Individual features with unsupported
// or invalid geometry are dropped with a warning.
func (p *Parser) ParseGeoJSON(data []byte) (Result, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidGeoJSON, err)
	}

	var raws []json.RawMessage
	switch env.Type {
	case "FeatureCollection":
		if env.Features == nil {
			return Result{}, fmt.Errorf("%w: missing features array", ErrInvalidGeoJSON)
		}
		raws = env.Features
	case "Feature":
		raws = []json.RawMessage{data}
	default:
		return Result{}, fmt.Errorf("%w: unexpected type %q", ErrInvalidGeoJSON, env.Type)
	}

	res := Result{Features: make([]Feature, 0, len(raws))}
	for i, raw := range raws {
		f, err := p.decodeFeature(raw)
		if err != nil {
			res.Warnings = append(res.Warnings, Warning{Row: i + 1, Reason: err.Error()})
			continue
		}
		res.Features = append(res.Features, f)
	}
	return res, nil
}

func (p *Parser) decodeFeature(raw json.RawMessage) (Feature, error) {
	gf, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		return Feature{}, err
	}
	if err := validateGeometry(gf.Geometry); err != nil {
		return Feature{}, err
	}
	return Feature{
		ID:         p.id(),
		Geometry:   gf.Geometry,
		Properties: NormalizeProperties(gf.Properties),
	}, nil
}
