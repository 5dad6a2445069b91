package clause

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gnolang/eql/parser"
)

// Error codes reported by Mark.
const (
	CodeUnknownProperty  = "unknown-property"
	CodeClauseType       = "clause-type"
	CodeRequiredProperty = "required-property"
)

// Mark walks a parsed tree from root under the clause id, setting
// Value.Clause on every value it can place in the grammar. It returns the
// grammar errors it finds; unknown properties are warnings.
//
// Parameters stand for any value and are never type checked. Mark must run
// before the tree is shared between goroutines.
func Mark(root *parser.Value, reg *Registry, id string) []*parser.Error {
	type item struct {
		v    *parser.Value
		id   string
		hops int // references and variants followed for v
	}

	var errs []*parser.Error
	maxHops := reg.Len()
	stack := []item{{v: root, id: id}}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if it.v == nil {
			continue
		}
		c, ok := reg.Lookup(it.id)
		if !ok {
			continue
		}
		it.v.Clause = c
		if it.v.Type == parser.TypeParameter {
			continue
		}

		switch c := c.(type) {
		case *Reference:
			if it.hops < maxHops {
				stack = append(stack, item{v: it.v, id: c.Target, hops: it.hops + 1})
			}

		case *Variant:
			sub, ok := c.Subtypes[jsonType(it.v.Type)]
			if !ok {
				errs = append(errs, typeError(it.v, c, expectedTypes(c)))
				continue
			}
			if it.hops < maxHops {
				stack = append(stack, item{v: it.v, id: sub, hops: it.hops + 1})
			}

		case *Base:
			if !c.Accepts(it.v.Type) {
				errs = append(errs, typeError(it.v, c, baseDescription(c.Kind)))
			}

		case *Enum:
			s, isString := it.v.Native.(string)
			if it.v.Type != parser.TypeString || !isString || !slices.Contains(c.Values, s) {
				errs = append(errs, typeError(it.v, c, "one of "+strings.Join(c.Values, ", ")))
			}

		case *Array:
			if it.v.Type != parser.TypeArray {
				errs = append(errs, typeError(it.v, c, "an array"))
				continue
			}
			for i := len(it.v.Children) - 1; i >= 0; i-- {
				stack = append(stack, item{v: it.v.Children[i], id: c.Elem})
			}

		case *Map:
			if it.v.Type != parser.TypeObject {
				errs = append(errs, typeError(it.v, c, "an object"))
				continue
			}
			for i := len(it.v.Properties) - 1; i >= 0; i-- {
				stack = append(stack, item{v: it.v.Properties[i].Value, id: c.Elem})
			}

		case *Structure:
			if it.v.Type != parser.TypeObject {
				errs = append(errs, typeError(it.v, c, "an object"))
				continue
			}
			for _, req := range c.Required {
				if it.v.Property(req) == nil {
					errs = append(errs, newError(it.v, CodeRequiredProperty, false,
						fmt.Sprintf("%s requires the property %q", c.DisplayName(), req)))
				}
			}
			var children []item
			for _, p := range it.v.Properties {
				target, known := c.Properties[p.Key]
				if !known {
					errs = append(errs, newError(p.Name, CodeUnknownProperty, true,
						fmt.Sprintf("unknown property %q in %s", p.Key, c.DisplayName())))
					continue
				}
				children = append(children, item{v: p.Value, id: target})
			}
			for i := len(children) - 1; i >= 0; i-- {
				stack = append(stack, children[i])
			}
		}
	}

	return errs
}

func newError(v *parser.Value, code string, warning bool, msg string) *parser.Error {
	var tok *parser.Token
	if len(v.Tokens) > 0 {
		tok = v.Tokens[0]
	}
	return &parser.Error{Token: tok, Value: v, Code: code, Message: msg, Warning: warning}
}

func typeError(v *parser.Value, c Clause, expected string) *parser.Error {
	return newError(v, CodeClauseType, false,
		fmt.Sprintf("%s expects %s, found %s", c.Describe().DisplayName(), expected, article(v.Type.String())))
}

func expectedTypes(v *Variant) string {
	types := make([]string, 0, len(v.Subtypes))
	for _, t := range jsonTypes {
		if _, ok := v.Subtypes[t]; ok {
			types = append(types, article(t))
		}
	}
	return strings.Join(types, " or ")
}

func baseDescription(kind string) string {
	switch kind {
	case KindBase:
		return "a null, boolean, number or string"
	case KindAny:
		return "any value"
	}
	return article(kind)
}

func article(s string) string {
	switch s {
	case "null":
		return "null"
	case "array", "object", "invalid", "unknown":
		return "an " + s
	}
	return "a " + s
}
