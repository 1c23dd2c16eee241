package schema

import (
	"encoding/json"
	"fmt"
)

// Args holds the arguments of one tool call keyed by parameter name.
// Values arrive JSON-decoded: strings, float64, bool, []any and map[string]any.
type Args map[string]any

// String returns the named argument as a string, or "" when absent.
// Non-string scalars are formatted with %v.
func (a Args) String(name string) string {
	v, ok := a[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// Float returns the named argument as a float64.
func (a Args) Float(name string) (float64, bool) {
	switch v := a[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Strings returns the named argument as a string slice. A single string is
// returned as a one-element slice.
func (a Args) Strings(name string) []string {
	switch v := a[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
				continue
			}
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	}
	return nil
}

// Object returns the named argument as a map. A JSON string holding an
// object is decoded, since models sometimes quote nested objects.
func (a Args) Object(name string) map[string]any {
	switch v := a[name].(type) {
	case map[string]any:
		return v
	case string:
		var m map[string]any
		if json.Unmarshal([]byte(v), &m) == nil {
			return m
		}
	}
	return nil
}

// Has reports whether the named argument is present and non-null.
func (a Args) Has(name string) bool {
	v, ok := a[name]
	return ok && v != nil
}
