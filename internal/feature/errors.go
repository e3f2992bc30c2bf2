package feature

import "errors"

// Format errors abort the whole upload.
var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrInvalidGeoJSON    = errors.New("invalid GeoJSON")
	ErrInvalidCSV        = errors.New("invalid CSV")
	ErrMissingColumns    = errors.New("latitude/longitude columns not found")
)
