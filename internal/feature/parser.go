package feature

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Format is an accepted upload format.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatGeoJSON Format = "geojson"
)

// DetectFormat picks the format from a file name extension.
func DetectFormat(fileName string) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return FormatCSV, nil
	case ".geojson", ".json":
		return FormatGeoJSON, nil
	}
	return "", ErrUnsupportedFormat
}

// Parser converts payloads into features.
type Parser struct {
	// NewID returns the synthetic id for each parsed feature.
	NewID func() string
}

// NewParser returns a parser that assigns UUID feature ids.
func NewParser() *Parser {
	return &Parser{NewID: uuid.NewString}
}

func (p *Parser) id() string {
	if p.NewID == nil {
		return uuid.NewString()
	}
	return p.NewID()
}

// Parse dispatches on format. cols is ignored for GeoJSON.
func (p *Parser) Parse(format Format, data []byte, cols Columns) (Result, error) {
	switch format {
	case FormatCSV:
		return p.ParseCSV(bytes.NewReader(data), cols)
	case FormatGeoJSON:
		return p.ParseGeoJSON(data)
	}
	return Result{}, ErrUnsupportedFormat
}
