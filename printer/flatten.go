// Package printer turns parsed values back into text: a keyword-flagged
// token stream, canonical indented source and highlighted source.
package printer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/gnolang/eql/parser"
)

// FlaggedToken is a token annotated with its nesting depth and whether it is
// a property name its enclosing clause recognizes.
type FlaggedToken struct {
	*parser.Token
	Depth     int
	IsKeyword bool
}

// Flatten linearizes the tree under root in pre-order. Each value emits its
// own tokens at its depth; array elements, property names and property
// values follow at depth+1. Property names are classified against the
// clause of the object holding them.
//
// With sortBySource the result is stably sorted by row and column.
func Flatten(root *parser.Value, sortBySource bool) []FlaggedToken {
	type item struct {
		v      *parser.Value
		depth  int
		parent parser.KeywordClause // set for property names only
	}

	var out []FlaggedToken
	if root == nil {
		return out
	}

	stack := []item{{v: root}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, tok := range it.v.Tokens {
			out = append(out, FlaggedToken{
				Token:     tok,
				Depth:     it.depth,
				IsKeyword: it.parent != nil && tok.Type != parser.TypePropertyDelimiter &&
					it.parent.HasKeyword(keywordText(tok.Text)),
			})
		}

		switch it.v.Type {
		case parser.TypeArray:
			for i := len(it.v.Children) - 1; i >= 0; i-- {
				stack = append(stack, item{v: it.v.Children[i], depth: it.depth + 1})
			}
		case parser.TypeObject:
			kc, _ := it.v.Clause.(parser.KeywordClause)
			for i := len(it.v.Properties) - 1; i >= 0; i-- {
				p := it.v.Properties[i]
				if p.Value != nil {
					stack = append(stack, item{v: p.Value, depth: it.depth + 1})
				}
				stack = append(stack, item{v: p.Name, depth: it.depth + 1, parent: kc})
			}
		}
	}

	if sortBySource {
		slices.SortStableFunc(out, func(a, b FlaggedToken) int {
			if c := cmp.Compare(a.Row, b.Row); c != 0 {
				return c
			}
			return cmp.Compare(a.Col, b.Col)
		})
	}

	return out
}

// keywordText turns `  "property"` into `property`.
func keywordText(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"'`)
}
