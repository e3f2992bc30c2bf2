package feature

import (
	"fmt"
	"strings"
)

// Columns is the user-declared mapping of CSV headers to coordinates and name.
type Columns struct {
	Lat  string `json:"lat,omitempty" doc:"Latitude column" example:"lat"`
	Lng  string `json:"lng,omitempty" doc:"Longitude column" example:"lng"`
	Name string `json:"name,omitempty" doc:"Name column" example:"name"`
}

var (
	latSynonyms  = []string{"latitude", "lat", "緯度"}
	lngSynonyms  = []string{"longitude", "lng", "lon", "long", "経度"}
	nameSynonyms = []string{"name", "title", "名前", "名称"}
)

// DetectColumns matches headers case-insensitively against known synonym
// lists. The first header, in header order, that matches wins. Fields
// that cannot be detected are left empty.
func DetectColumns(headers []string) Columns {
	return Columns{
		Lat:  firstMatch(headers, latSynonyms),
		Lng:  firstMatch(headers, lngSynonyms),
		Name: firstMatch(headers, nameSynonyms),
	}
}

func firstMatch(headers, synonyms []string) string {
	for _, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		for _, s := range synonyms {
			if norm == s {
				return h
			}
		}
	}
	return ""
}

// Resolve fills undeclared fields from detection and checks that every
// declared column exists in headers.
func (c Columns) Resolve(headers []string) (Columns, error) {
	detected := DetectColumns(headers)
	if c.Lat == "" {
		c.Lat = detected.Lat
	}
	if c.Lng == "" {
		c.Lng = detected.Lng
	}
	if c.Name == "" {
		c.Name = detected.Name
	}
	if c.Lat == "" || c.Lng == "" {
		return Columns{}, ErrMissingColumns
	}
	for _, col := range []string{c.Lat, c.Lng, c.Name} {
		if col != "" && !contains(headers, col) {
			return Columns{}, fmt.Errorf("%w: no column %q", ErrMissingColumns, col)
		}
	}
	return c, nil
}

func (c Columns) selected(header string) bool {
	return header == c.Lat || header == c.Lng || (c.Name != "" && header == c.Name)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
