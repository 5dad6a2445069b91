package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the semantic tag shared by tokens and values.
type Type int

const (
	TypeInvalid Type = iota
	TypeUnknown
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeParameter
	TypeObject
	TypeArray
	TypeObjectTerminator
	TypeArrayTerminator
	TypeObjectDelimiter
	TypeArrayDelimiter
	TypePropertyDelimiter
)

var typeNames = [...]string{
	TypeInvalid:           "invalid",
	TypeUnknown:           "unknown",
	TypeNull:              "null",
	TypeBoolean:           "boolean",
	TypeNumber:            "number",
	TypeString:            "string",
	TypeParameter:         "parameter",
	TypeObject:            "object",
	TypeArray:             "array",
	TypeObjectTerminator:  "objectTerminator",
	TypeArrayTerminator:   "arrayTerminator",
	TypeObjectDelimiter:   "objectDelimiter",
	TypeArrayDelimiter:    "arrayDelimiter",
	TypePropertyDelimiter: "propertyDelimiter",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// Parameter is the native value of a `@name` literal. It holds the name
// without the leading '@'.
type Parameter string

func (p Parameter) String() string { return "@" + string(p) }

// MarshalText writes the parameter in its quoted form, "@name", which
// parses back as a parameter string.
func (p Parameter) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Stringify converts a native value to a property name the way a dynamic
// key-value map would.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatNumber(x)
	case string:
		return x
	case Parameter:
		return x.String()
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			if e == nil {
				continue
			}
			parts[i] = Stringify(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return fmt.Sprint(v)
	}
}

func formatNumber(f float64) string {
	abs := f
	if abs < 0 {
		abs = -abs
	}
	if abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
