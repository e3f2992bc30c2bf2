package feature

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/paulmach/orb"
)

func seqParser() *Parser {
	n := 0
	return &Parser{NewID: func() string {
		n++
		return fmt.Sprintf("f%d", n)
	}}
}

func TestParseCSVTokyo(t *testing.T) {
	in := "lat,lng,name,extra\n35.6,139.7,Tokyo,x\n"
	res, err := seqParser().ParseCSV(strings.NewReader(in), Columns{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Features) != 1 {
		t.Fatalf("features=%d, want 1", len(res.Features))
	}
	f := res.Features[0]
	if pt, ok := f.Geometry.(orb.Point); !ok || pt != (orb.Point{139.7, 35.6}) {
		t.Fatalf("geometry=%v, want [139.7 35.6]", f.Geometry)
	}
	if f.Properties["name"] != "Tokyo" {
		t.Fatalf("name=%v, want Tokyo", f.Properties["name"])
	}
	if f.Properties["extra"] != "x" {
		t.Fatalf("extra=%v, want x", f.Properties["extra"])
	}
	if f.Description() != "extra: x" {
		t.Fatalf("description=%q, want %q", f.Description(), "extra: x")
	}
	if f.ID != "f1" {
		t.Fatalf("id=%q, want f1", f.ID)
	}
}

func TestParseCSVBadRow(t *testing.T) {
	in := "lat,lng,name\nabc,139.7,Bad\n"
	res, err := seqParser().ParseCSV(strings.NewReader(in), Columns{Lat: "lat", Lng: "lng", Name: "name"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Features) != 0 {
		t.Fatalf("features=%d, want 0", len(res.Features))
	}
	if res.Skipped() != 1 || res.Warnings[0].Row != 1 {
		t.Fatalf("warnings=%v, want one on row 1", res.Warnings)
	}
}

func TestParseCSVSkippedCount(t *testing.T) {
	in := strings.Join([]string{
		"latitude,longitude,label",
		"1,2,a",
		"NaN,2,b",
		",3,c",
		"91,0,d",
		"4,5,e",
		"4,Inf,f",
	}, "\n")
	res, err := seqParser().ParseCSV(strings.NewReader(in), Columns{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Features) != 2 {
		t.Fatalf("features=%d, want 2", len(res.Features))
	}
	if res.Skipped() != 4 {
		t.Fatalf("skipped=%d, want 4", res.Skipped())
	}
	for _, f := range res.Features {
		if f.Name() != DefaultName {
			t.Fatalf("name=%q, want %q", f.Name(), DefaultName)
		}
		if f.Properties["label"] == nil {
			t.Fatal("label column not kept")
		}
	}
}

func TestParseCSVEveryValidRow(t *testing.T) {
	var b strings.Builder
	b.WriteString("lat,lng\n")
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, "%v,%v\n", float64(i-25)+0.5, float64(i*3-75)+0.25)
	}
	res, err := seqParser().ParseCSV(strings.NewReader(b.String()), Columns{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Features) != 50 {
		t.Fatalf("features=%d, want 50", len(res.Features))
	}
	for i, f := range res.Features {
		want := orb.Point{float64(i*3-75) + 0.25, float64(i-25) + 0.5}
		if f.Geometry.(orb.Point) != want {
			t.Fatalf("row %d: geometry=%v, want %v", i, f.Geometry, want)
		}
	}
}

func TestParseCSVReservedColumns(t *testing.T) {
	in := "lat,lng,title,name,_x\n1,1,Here,dup,y\n"
	res, err := seqParser().ParseCSV(strings.NewReader(in), Columns{Name: "title"})
	if err != nil {
		t.Fatal(err)
	}
	p := res.Features[0].Properties
	if p["name"] != "Here" || p["col:name"] != "dup" || p["col:_x"] != "y" {
		t.Fatalf("properties=%v", p)
	}
	if p["description"] != "name: dup, _x: y" {
		t.Fatalf("description=%q", p["description"])
	}
}

func TestParseCSVMissingColumns(t *testing.T) {
	_, err := seqParser().ParseCSV(strings.NewReader("a,b\n1,2\n"), Columns{})
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("err=%v, want ErrMissingColumns", err)
	}
	_, err = seqParser().ParseCSV(strings.NewReader("lat,lng\n1,2\n"), Columns{Name: "nope"})
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("err=%v, want ErrMissingColumns", err)
	}
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := seqParser().ParseCSV(strings.NewReader(""), Columns{})
	if !errors.Is(err, ErrInvalidCSV) {
		t.Fatalf("err=%v, want ErrInvalidCSV", err)
	}
}

func TestReadCSVRaggedAndBOM(t *testing.T) {
	tab, err := ReadCSV(strings.NewReader("\ufefflat,lng,name\n1,2\n3,4,c,extra\n"))
	if err != nil {
		t.Fatal(err)
	}
	if tab.Headers[0] != "lat" {
		t.Fatalf("header=%q, want lat", tab.Headers[0])
	}
	if len(tab.Rows) != 2 || tab.Rows[0]["name"] != "" || tab.Rows[1]["name"] != "c" {
		t.Fatalf("rows=%v", tab.Rows)
	}
}

func TestParseCSVDuplicateHeadersKeepEveryCell(t *testing.T) {
	in := "lat,lng,name,tag,tag,tag_2\n35.6,139.7,Tokyo,first,second,third\n"
	res, err := seqParser().ParseCSV(strings.NewReader(in), Columns{})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Features) != 1 {
		t.Fatalf("features=%d, want 1", len(res.Features))
	}
	f := res.Features[0]
	for key, want := range map[string]string{"tag": "first", "tag_3": "second", "tag_2": "third"} {
		if f.Properties[key] != want {
			t.Fatalf("%s=%v, want %s (props=%v)", key, f.Properties[key], want, f.Properties)
		}
	}
	if want := "tag: first, tag_3: second, tag_2: third"; f.Description() != want {
		t.Fatalf("description=%q, want %q", f.Description(), want)
	}
}

func TestReadCSVNumbersRepeatedHeaders(t *testing.T) {
	tab, err := ReadCSV(strings.NewReader("a,a,a\n1,2,3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(tab.Headers, ","); got != "a,a_2,a_3" {
		t.Fatalf("headers=%s", got)
	}
	if tab.Rows[0]["a"] != "1" || tab.Rows[0]["a_2"] != "2" || tab.Rows[0]["a_3"] != "3" {
		t.Fatalf("row=%v", tab.Rows[0])
	}
}

func TestDetectColumns(t *testing.T) {
	tests := []struct {
		headers []string
		want    Columns
	}{
		{[]string{"Name", "LAT", "Lon"}, Columns{Lat: "LAT", Lng: "Lon", Name: "Name"}},
		{[]string{"latitude", "lat", "lng", "longitude"}, Columns{Lat: "latitude", Lng: "lng"}},
		{[]string{"名前", "緯度", "経度"}, Columns{Lat: "緯度", Lng: "経度", Name: "名前"}},
		{[]string{" Latitude ", "x"}, Columns{Lat: " Latitude "}},
	}
	for _, tt := range tests {
		if got := DetectColumns(tt.headers); got != tt.want {
			t.Errorf("DetectColumns(%v)=%+v, want %+v", tt.headers, got, tt.want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	for name, want := range map[string]Format{
		"a.csv": FormatCSV, "B.GeoJSON": FormatGeoJSON, "c.json": FormatGeoJSON,
	} {
		got, err := DetectFormat(name)
		if err != nil || got != want {
			t.Errorf("DetectFormat(%q)=%q,%v, want %q", name, got, err, want)
		}
	}
	if _, err := DetectFormat("x.kml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err=%v, want ErrUnsupportedFormat", err)
	}
}
