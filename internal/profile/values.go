package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Options returns the options map of doc, or nil.
func Options(doc Document) map[string]any {
	m, _ := Map(doc["options"])
	return m
}

// Value returns the value of key, looking in doc first and then in its
// options map. Profiles written by different tool versions put fields in
// either place.
func Value(doc Document, key string) (any, bool) {
	if v, ok := doc[key]; ok && v != nil {
		return v, true
	}
	if opts := Options(doc); opts != nil {
		if v, ok := opts[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// OptValue is Value with options taking precedence over the top level.
func OptValue(doc Document, key string) (any, bool) {
	if opts := Options(doc); opts != nil {
		if v, ok := opts[key]; ok && v != nil {
			return v, true
		}
	}
	if v, ok := doc[key]; ok && v != nil {
		return v, true
	}
	return nil, false
}

// Str returns the trimmed string value of key (see Value). Numbers are
// formatted; anything else yields "".
func Str(doc Document, key string) string {
	v, ok := Value(doc, key)
	if !ok {
		return ""
	}
	return AsString(v)
}

// AsString converts a scalar to its trimmed string form.
func AsString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// Num converts a numeric value to float64. Strings and booleans are not
// numbers.
func Num(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsInteger reports whether f is a finite whole number.
func IsInteger(f float64) bool {
	return Finite(f) && f == math.Trunc(f)
}

// Bool converts a boolean value. The strings "true" and "false" are
// accepted because form-backed editors store flags as text.
func Bool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// Map converts v to a string-keyed map. YAML decoders that produce
// map[any]any are handled.
func Map(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// List converts v to a []any.
func List(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}
