package feature

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Table is a header row plus records keyed by header.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// ReadCSV reads a CSV document whose first record is the header row.
// Short rows are padded with empty cells and surplus cells are ignored.
// Repeated headers are numbered: tag, tag_2.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	headers, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, fmt.Errorf("%w: missing header row", ErrInvalidCSV)
	}
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	headers = uniqueHeaders(headers)

	t := Table{Headers: headers}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// uniqueHeaders numbers repeated headers (tag, tag_2, tag_3) so every cell
// keeps its own key.
func uniqueHeaders(headers []string) []string {
	seen := make(map[string]bool, len(headers))
	for _, h := range headers {
		seen[h] = true
	}
	out := make([]string, len(headers))
	used := make(map[string]bool, len(headers))
	for i, h := range headers {
		name := h
		for n := 2; used[name]; n++ {
			if candidate := fmt.Sprintf("%s_%d", h, n); !used[candidate] && !seen[candidate] {
				name = candidate
			}
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// ParseCSV reads and converts a CSV document.
func (p *Parser) ParseCSV(r io.Reader, cols Columns) (Result, error) {
	t, err := ReadCSV(r)
	if err != nil {
		return Result{}, err
	}
	return p.ParseTable(t, cols)
}

// ParseTable converts rows to Point features. Rows whose coordinates are
// not finite, in-range numbers are dropped with a warning.
func (p *Parser) ParseTable(t Table, cols Columns) (Result, error) {
	cols, err := cols.Resolve(t.Headers)
	if err != nil {
		return Result{}, err
	}

	res := Result{Columns: cols, Features: make([]Feature, 0, len(t.Rows))}
	for i, row := range t.Rows {
		pt, reason := parseLngLat(row[cols.Lat], row[cols.Lng])
		if reason != "" {
			res.Warnings = append(res.Warnings, Warning{Row: i + 1, Reason: reason})
			continue
		}
		res.Features = append(res.Features, Feature{
			ID:         p.id(),
			Geometry:   pt,
			Properties: rowProperties(t.Headers, row, cols),
		})
	}
	return res, nil
}

func parseLngLat(latStr, lngStr string) (orb.Point, string) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Sprintf("invalid latitude %q", latStr)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
	if err != nil {
		return orb.Point{}, fmt.Sprintf("invalid longitude %q", lngStr)
	}
	pt := orb.Point{lng, lat}
	if !ValidLngLat(pt) {
		return orb.Point{}, fmt.Sprintf("coordinate out of range (%v, %v)", lat, lng)
	}
	return pt, ""
}

func rowProperties(headers []string, row map[string]string, cols Columns) Properties {
	props := Properties{}
	name := DefaultName
	if cols.Name != "" && row[cols.Name] != "" {
		name = row[cols.Name]
	}
	props[PropName] = name

	var desc []string
	for _, h := range headers {
		if cols.selected(h) {
			continue
		}
		desc = append(desc, h+": "+row[h])
		props[columnKey(h)] = row[h]
	}
	props[PropDescription] = strings.Join(desc, ", ")
	return props
}
