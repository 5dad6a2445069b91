package filler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Params supplies parameter values by name.
type Params interface {
	// Lookup returns the value of a parameter such as "size" or
	// "data.params.from". Values are nil, bool, float64, int, string,
	// []any or map[string]any.
	Lookup(name string) (any, bool)
}

// MapParams looks names up in nested Go maps, for example decoded YAML.
// An exact key wins over a dotted path.
type MapParams map[string]any

func (m MapParams) Lookup(name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	return lookupPath(map[string]any(m), strings.Split(name, "."))
}

// asObject returns v as a Go object. yaml.v3 decodes nested mappings
// into the type of the outer map, so MapParams shows up inside MapParams.
func asObject(v any) (map[string]any, bool) {
	switch obj := v.(type) {
	case map[string]any:
		return obj, true
	case MapParams:
		return obj, true
	}
	return nil, false
}

// lookupPath follows keys through objects and indexes through arrays.
func lookupPath(v any, path []string) (any, bool) {
	for _, key := range path {
		if obj, ok := asObject(v); ok {
			next, found := obj[key]
			if !found {
				return nil, false
			}
			v = next
			continue
		}
		switch cur := v.(type) {
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(cur) {
				return nil, false
			}
			v = cur[i]
		default:
			return nil, false
		}
	}
	return v, true
}

// JSONParams looks names up in a raw JSON document.
type JSONParams struct {
	raw string
}

// NewJSONParams wraps a JSON object of parameter values.
func NewJSONParams(data []byte) (JSONParams, error) {
	if !gjson.ValidBytes(data) {
		return JSONParams{}, errors.New("parameters are not valid JSON")
	}
	if !gjson.ParseBytes(data).IsObject() {
		return JSONParams{}, errors.New("parameters must be a JSON object")
	}
	return JSONParams{raw: string(data)}, nil
}

func (p JSONParams) Lookup(name string) (any, bool) {
	if r := gjson.Get(p.raw, escapePathComponent(name)); r.Exists() {
		return r.Value(), true
	}

	r := gjson.Get(p.raw, escapePath(name))
	if !r.Exists() {
		return nil, false
	}
	return r.Value(), true
}

// With returns a copy of p where the dotted name holds value. Missing
// objects along the path are created.
func (p JSONParams) With(name string, value any) (JSONParams, error) {
	raw, err := sjson.Set(p.raw, escapePath(name), value)
	if err != nil {
		return p, fmt.Errorf("setting parameter %s: %w", name, err)
	}
	return JSONParams{raw: raw}, nil
}

// String returns the JSON document.
func (p JSONParams) String() string { return p.raw }

func escapePath(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = escapePathComponent(part)
	}
	return strings.Join(parts, ".")
}

// escapePathComponent makes s match a single key literally in a gjson path.
func escapePathComponent(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '_', c == '-', c == ':', c == '+', c > '~':
		default:
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}
