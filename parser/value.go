package parser

import (
	"fmt"
	"strings"
)

// Token is a lexical span of the source with its position and semantic tag.
type Token struct {
	Offset int    // byte offset of the first character
	Row    int    // 0-based row of Offset
	Col    int    // 0-based byte column of Offset
	Length int    // length in bytes
	ToRow  int    // row of Offset+Length
	ToCol  int    // column of Offset+Length
	Text   string // source[Offset : Offset+Length]
	Type   Type
	Owner  *Value // value that produced the token; nil only for trailing input when no root value was read
}

// End returns the offset just past the token.
func (t *Token) End() int { return t.Offset + t.Length }

func (t *Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Type, t.Text, t.Row, t.Col)
}

// Clause tags the grammar rule a value was interpreted under.
type Clause interface {
	Name() string
}

// KeywordClause is a Clause that declares the property names it recognizes.
type KeywordClause interface {
	Clause
	HasKeyword(name string) bool
}

// Value is a node of the parsed tree.
type Value struct {
	Type   Type
	Native any      // nil, bool, float64, string, Parameter, []any or map[string]any
	Tokens []*Token // tokens produced by this node, in source order

	Children   []*Value    // array elements
	Properties []*Property // object entries in source order, shadowed duplicates included

	// Clause is set by clause interpreters after parsing; nil when unmarked.
	Clause Clause
}

// Property returns the entry that owns key in the native object. Later
// duplicates shadow earlier ones.
func (v *Value) Property(key string) *Property {
	for i := len(v.Properties) - 1; i >= 0; i-- {
		if p := v.Properties[i]; p.Key == key && p.Value != nil {
			return p
		}
	}
	return nil
}

// Parameter returns the parameter name when v is a parameter literal.
func (v *Value) Parameter() (string, bool) {
	if v == nil || v.Type != TypeParameter {
		return "", false
	}
	p, _ := v.Native.(Parameter)
	return string(p), true
}

// Text returns the trimmed source text of the first token of v.
func (v *Value) Text() string {
	if v == nil || len(v.Tokens) == 0 {
		return ""
	}
	return strings.TrimSpace(v.Tokens[0].Text)
}

func (v *Value) String() string {
	switch v.Type {
	case TypeArray:
		return fmt.Sprintf("Array(%d children)", len(v.Children))
	case TypeObject:
		return fmt.Sprintf("Object(%d properties)", len(v.Properties))
	default:
		return fmt.Sprintf("%s(%s)", v.Type, v.Text())
	}
}

// Property pairs a property name value with its property value.
type Property struct {
	Key   string // the name coerced to a string
	Name  *Value
	Value *Value // nil when the value is missing
}

// Error describes a problem found while parsing or interpreting a tree.
type Error struct {
	Token   *Token // offending token
	Value   *Value // value under construction when the problem was found
	Code    string
	Message string
	Warning bool
}

func (e *Error) Error() string {
	if e.Token == nil {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Token.Row+1, e.Token.Col+1, e.Message)
}

// Error codes.
const (
	CodeUnknownToken      = "unknown-token"
	CodeStringFormat      = "string-format"
	CodeNumberFormat      = "number-format"
	CodePossibleLiteral   = "possible-literal"
	CodeInvalidParameter  = "invalid-parameter"
	CodePropertyName      = "property-name"
	CodeDuplicateProperty = "duplicate-property"
	CodeMissingValue      = "missing-value"
	CodeMissingBrace      = "missing-brace"
	CodeMissingBracket    = "missing-bracket"
	CodeUnexpectedToken   = "unexpected-token"
)
