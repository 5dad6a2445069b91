// Package clause describes the grammar of a query language as a registry of
// clauses and tags parsed values with the clause they were written under.
package clause

import (
	"slices"
	"sort"

	"github.com/gnolang/eql/parser"
)

// Clause is one rule of the grammar.
type Clause interface {
	parser.Clause
	Describe() *Info
}

// Info is the documentation shared by every kind of clause.
type Info struct {
	ID       string // registry key such as "bool" or "query[]"
	Title    string
	Desc     string
	URL      string
	Template any // value inserted by editors when the clause is added
}

func (i *Info) Name() string { return i.ID }

func (i *Info) Describe() *Info { return i }

// DisplayName returns the title, or the id when no title is set.
func (i *Info) DisplayName() string {
	if i.Title != "" {
		return i.Title
	}
	return i.ID
}

// Base kinds.
const (
	KindAny     = "any"
	KindNull    = "null"
	KindBoolean = "boolean"
	KindNumber  = "number"
	KindString  = "string"
	KindBase    = "base" // any scalar
	KindObject  = "object"
)

var baseKinds = []string{KindAny, KindNull, KindBoolean, KindNumber, KindString, KindBase, KindObject}

func isBaseKind(s string) bool { return slices.Contains(baseKinds, s) }

// Base accepts any value of a primitive kind.
type Base struct {
	Info
	Kind string
}

// Accepts reports whether a value of type t satisfies the clause.
func (b *Base) Accepts(t parser.Type) bool {
	switch b.Kind {
	case KindAny:
		return true
	case KindNull:
		return t == parser.TypeNull
	case KindBoolean:
		return t == parser.TypeBoolean
	case KindNumber:
		return t == parser.TypeNumber
	case KindString:
		return t == parser.TypeString
	case KindBase:
		return t == parser.TypeNull || t == parser.TypeBoolean || t == parser.TypeNumber || t == parser.TypeString
	case KindObject:
		return t == parser.TypeObject
	}
	return false
}

// Enum accepts one of a fixed set of strings.
type Enum struct {
	Info
	Values []string
}

// Structure is an object with a known set of properties. Its property names
// are keywords.
type Structure struct {
	Info
	Properties map[string]string // property name -> clause id
	Required   []string
}

var _ parser.KeywordClause = (*Structure)(nil)

func (s *Structure) HasKeyword(name string) bool {
	_, ok := s.Properties[name]
	return ok
}

// Keywords returns the property names in sorted order.
func (s *Structure) Keywords() []string {
	keys := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Variant selects a clause by the JSON type of the value.
type Variant struct {
	Info
	Subtypes map[string]string // json type -> clause id
}

// Array is a list of values of one clause.
type Array struct {
	Info
	Elem string
}

// Map is an object whose keys are free-form (usually field names) and whose
// values all follow one clause.
type Map struct {
	Info
	Key  string
	Elem string
}

// Reference is a clause defined as another clause.
type Reference struct {
	Info
	Target string
}

// jsonType names the JSON type of a parsed value the way variants key them.
func jsonType(t parser.Type) string {
	switch t {
	case parser.TypeObject:
		return "object"
	case parser.TypeArray:
		return "array"
	case parser.TypeString:
		return "string"
	case parser.TypeNumber:
		return "number"
	case parser.TypeBoolean:
		return "boolean"
	case parser.TypeNull:
		return "null"
	}
	return ""
}

var jsonTypes = []string{"object", "array", "string", "number", "boolean", "null"}
