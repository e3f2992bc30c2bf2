package feature

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Properties is an open string-keyed bag of primitive values
// (string, float64, bool or nil).
type Properties map[string]any

// Clone returns a shallow copy. Values are primitives so this is a full copy.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// NormalizeProperties applies the serialization rule for GeoJSON property
// bags: strings, numbers, bools and null are kept, nested objects and arrays
// become compact JSON strings.
func NormalizeProperties(in map[string]any) Properties {
	out := make(Properties, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil, string, bool, float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// columnKey maps a CSV header to its property key. Headers that collide
// with reserved keys or start with "_" are namespaced under "col:".
func columnKey(header string) string {
	switch {
	case header == PropName, header == PropDescription, header == PropID,
		strings.HasPrefix(header, "_"):
		return "col:" + header
	}
	return header
}
