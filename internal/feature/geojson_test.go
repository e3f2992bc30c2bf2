package feature

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func TestParseGeoJSONCollection(t *testing.T) {
	in := `{"type":"FeatureCollection","features":[
		{"type":"Feature","geometry":{"type":"Point","coordinates":[139.7,35.6]},"properties":{"name":"Tokyo","tags":["a","b"],"meta":{"k":1},"pop":13.9}},
		{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]},"properties":{}},
		{"type":"Feature","geometry":{"type":"LineString","coordinates":[[0,0],[1,1]]},"properties":{}},
		{"type":"Feature","geometry":{"type":"Point","coordinates":[200,10]},"properties":{}},
		{"type":"Feature","geometry":null,"properties":{}}
	]}`
	res, err := seqParser().ParseGeoJSON([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Features) != 2 {
		t.Fatalf("features=%d, want 2", len(res.Features))
	}
	if res.Skipped() != 3 {
		t.Fatalf("skipped=%d, want 3 (%v)", res.Skipped(), res.Warnings)
	}
	p := res.Features[0].Properties
	if p["tags"] != `["a","b"]` || p["meta"] != `{"k":1}` || p["pop"] != 13.9 {
		t.Fatalf("properties=%v", p)
	}
	if _, ok := res.Features[1].Geometry.(orb.Polygon); !ok {
		t.Fatalf("geometry=%T, want orb.Polygon", res.Features[1].Geometry)
	}
}

func TestParseGeoJSONSingleFeature(t *testing.T) {
	in := `{"type":"Feature","geometry":{"type":"MultiPolygon","coordinates":[[[[0,0],[2,0],[2,2],[0,0]]]]},"properties":{"name":"m"}}`
	res, err := seqParser().ParseGeoJSON([]byte(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Features) != 1 || res.Features[0].Name() != "m" {
		t.Fatalf("features=%v", res.Features)
	}
}

func TestParseGeoJSONFormatErrors(t *testing.T) {
	for _, in := range []string{
		`{"type":"Point","coordinates":[1,2]}`,
		`{"type":"FeatureCollection"}`,
		`not json`,
		`[]`,
	} {
		if _, err := seqParser().ParseGeoJSON([]byte(in)); !errors.Is(err, ErrInvalidGeoJSON) {
			t.Errorf("ParseGeoJSON(%s) err=%v, want ErrInvalidGeoJSON", in, err)
		}
	}
}

func TestFeatureGeoJSONCarriesID(t *testing.T) {
	f := Feature{ID: "abc", Geometry: orb.Point{1, 2}, Properties: Properties{"name": "x"}}
	gf := f.GeoJSON()
	if gf.ID != "abc" || gf.Properties[PropID] != "abc" {
		t.Fatalf("id=%v fid=%v, want abc", gf.ID, gf.Properties[PropID])
	}
	if _, ok := f.Properties[PropID]; ok {
		t.Fatal("GeoJSON mutated source properties")
	}
}

func TestNormalizeProperties(t *testing.T) {
	got := NormalizeProperties(map[string]any{"n": nil, "b": true, "i": 3, "s": "x"})
	if got["n"] != nil || got["b"] != true || got["i"] != float64(3) || got["s"] != "x" {
		t.Fatalf("got=%v", got)
	}
}
