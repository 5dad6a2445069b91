// Package filler replaces `@name` parameters in a parsed query with their
// values and writes the result as compact JSON.
package filler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gnolang/eql/parser"
)

var (
	ErrUndefinedParameter = errors.New("undefined parameter")
	ErrNotParentParameter = errors.New("not a runtime parent parameter")
	ErrParameterPath      = errors.New("parameter path not found")
	ErrInvalidDate        = errors.New("invalid date parameter")
)

type config struct {
	now     func() time.Time
	runtime string
}

// Option configures Fill.
type Option func(*config)

// WithClock sets the clock date parameters are computed from.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithRuntimeParam names the alias of a parent query whose fields are only
// known while the query runs. Parameters under the alias are kept as
// strings when params has no value for it.
func WithRuntimeParam(alias string) Option {
	return func(c *config) { c.runtime = alias }
}

// resolver returns the JSON text of a parameter. inTerms is set for values
// directly under a terms clause.
type resolver func(name string, inTerms bool) (string, error)

// Fill writes root as compact JSON with every parameter replaced by its
// value. A parameter is either a bare `@name` or a string whose whole text
// is a parameter, such as "@size". Unresolved parameters are an error.
func Fill(root *parser.Value, params Params, opts ...Option) (string, error) {
	cfg := config{now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if params == nil {
		params = MapParams{}
	}

	return generate(root, func(name string, _ bool) (string, error) {
		head, _, _ := strings.Cut(name, ".")

		runtimeDefined := false
		if cfg.runtime != "" {
			_, runtimeDefined = params.Lookup(cfg.runtime)
		}
		if cfg.runtime != "" && head == cfg.runtime && !runtimeDefined {
			return encode("@" + name)
		}
		if head == datePrefix && !runtimeDefined {
			return encodeDate(cfg.now(), name)
		}

		v, ok := params.Lookup(name)
		if !ok {
			return "", fmt.Errorf("%w @%s", ErrUndefinedParameter, name)
		}
		if s, isString := v.(string); isString && strings.HasPrefix(s, "@"+datePrefix) {
			return encodeDate(cfg.now(), s[1:])
		}
		return encode(v)
	})
}

// FillParent fills parameters that all refer to the runtime parent alias,
// such as `@parent.user.id`. Path segments select object fields and array
// indexes; a field applied to an array collects that field from every
// element. Inside a terms clause values are written as arrays, elsewhere
// arrays are joined into one space separated string.
func FillParent(root *parser.Value, params Params, alias string) (string, error) {
	if params == nil {
		params = MapParams{}
	}
	return generate(root, func(name string, inTerms bool) (string, error) {
		path := strings.Split(name, ".")
		if path[0] != alias {
			return "", fmt.Errorf("@%s: %w", name, ErrNotParentParameter)
		}
		v, ok := params.Lookup(alias)
		if !ok {
			return "", fmt.Errorf("%w @%s", ErrUndefinedParameter, alias)
		}

		for _, field := range path[1:] {
			if obj, isObj := asObject(v); isObj {
				next, has := obj[field]
				if !has {
					return "", fmt.Errorf("@%s: %w: no field %q", name, ErrParameterPath, field)
				}
				v = next
				continue
			}
			switch cur := v.(type) {
			case []any:
				if i, err := strconv.Atoi(field); err == nil && i >= 0 {
					if i >= len(cur) {
						return "", fmt.Errorf("@%s: %w: index %d out of %d", name, ErrParameterPath, i, len(cur))
					}
					v = cur[i]
					continue
				}
				collected := []any{}
				for _, e := range cur {
					if obj, isObj := asObject(e); isObj {
						if x, has := obj[field]; has {
							collected = append(collected, x)
						}
					}
				}
				v = collected
			default:
				return "", fmt.Errorf("@%s: %w: %v has no field %q", name, ErrParameterPath, cur, field)
			}
		}

		if arr, isArr := v.([]any); isArr {
			if inTerms {
				return encode(arr)
			}
			words := make([]string, len(arr))
			for i, e := range arr {
				if e != nil {
					words[i] = parser.Stringify(e)
				}
			}
			return encode(strings.Join(words, " "))
		}
		if inTerms {
			return encode([]any{v})
		}
		return encode(v)
	})
}

// generate serializes the tree under root, asking resolve for parameters.
// Shadowed duplicate properties and properties without a value are left
// out.
func generate(root *parser.Value, resolve resolver) (string, error) {
	type work struct {
		v         *parser.Value
		lit       string // written when v is nil
		termsBody bool   // v is the value of a "terms" property
		inTerms   bool   // v is a value directly inside a terms clause
	}

	if root == nil {
		return "", nil
	}

	var b strings.Builder
	stack := []work{{v: root}}

	for len(stack) > 0 {
		w := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if w.v == nil {
			b.WriteString(w.lit)
			continue
		}
		v := w.v

		switch v.Type {
		case parser.TypeObject:
			var items []work
			items = append(items, work{lit: "{"})
			first := true
			for _, p := range v.Properties {
				if p.Value == nil || v.Property(p.Key) != p {
					continue
				}
				key, err := encode(p.Key)
				if err != nil {
					return "", err
				}
				if !first {
					key = "," + key
				}
				first = false
				items = append(items,
					work{lit: key + ":"},
					work{v: p.Value, termsBody: p.Key == "terms", inTerms: w.termsBody})
			}
			items = append(items, work{lit: "}"})
			for i := len(items) - 1; i >= 0; i-- {
				stack = append(stack, items[i])
			}

		case parser.TypeArray:
			stack = append(stack, work{lit: "]"})
			for i := len(v.Children) - 1; i >= 0; i-- {
				stack = append(stack, work{v: v.Children[i]})
				if i > 0 {
					stack = append(stack, work{lit: ","})
				}
			}
			stack = append(stack, work{lit: "["})

		case parser.TypeParameter:
			name, _ := v.Parameter()
			out, err := resolve(name, w.inTerms)
			if err != nil {
				return "", err
			}
			b.WriteString(out)

		case parser.TypeString:
			s, _ := v.Native.(string)
			if parser.ParameterPattern.MatchString(s) {
				out, err := resolve(s[1:], w.inTerms)
				if err != nil {
					return "", err
				}
				b.WriteString(out)
				continue
			}
			out, err := encode(s)
			if err != nil {
				return "", err
			}
			b.WriteString(out)

		case parser.TypeNumber:
			if text := v.Text(); json.Valid([]byte(text)) {
				b.WriteString(text)
				continue
			}
			out, err := encode(v.Native)
			if err != nil {
				return "", err
			}
			b.WriteString(out)

		default:
			out, err := encode(v.Native)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
		}
	}

	return b.String(), nil
}

func encodeDate(now time.Time, spec string) (string, error) {
	date, err := relativeDate(now, spec)
	if err != nil {
		return "", err
	}
	return encode(date)
}

// encode writes v as compact JSON without HTML escaping.
func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding parameter value: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
