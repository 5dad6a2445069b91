package printer

import (
	"strings"

	"github.com/gnolang/eql/parser"
)

// fragment is a piece of output with the whitespace it asks for on either
// side.
type fragment struct {
	head  string
	str   string
	tail  string
	depth int
}

func toFragment(t FlaggedToken, unwrapParameters bool) fragment {
	f := fragment{depth: t.Depth}

	switch t.Type {
	case parser.TypeObject, parser.TypeArray:
		f.str = strings.TrimSpace(t.Text)
		f.tail = "\n"
	case parser.TypeObjectTerminator, parser.TypeArrayTerminator:
		f.head = "\n"
		f.str = strings.TrimSpace(t.Text)
	case parser.TypeObjectDelimiter, parser.TypeArrayDelimiter:
		f.str = ","
		f.tail = "\n"
	case parser.TypePropertyDelimiter:
		f.str = ":"
		f.tail = " "
	default:
		f.str = strings.TrimSpace(t.Text)
		if unwrapParameters && t.Type == parser.TypeString {
			f.str = unwrapParameter(f.str)
		}
	}

	return f
}

// unwrapParameter turns `"@name"` into `@name`.
func unwrapParameter(s string) string {
	if len(s) < 3 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	inner := s[1 : len(s)-1]
	if parser.ParameterPattern.MatchString(inner) {
		return inner
	}
	return s
}

// Format renders a flattened token stream as canonical text. Scalars keep
// their source text; containers put one element per line, indented by
// tabWidth spaces per depth. With unwrapParameters, string literals holding
// a parameter such as "@size" are written as bare parameters.
func Format(tokens []FlaggedToken, tabWidth int, unwrapParameters bool) string {
	if len(tokens) == 0 {
		return ""
	}
	if tabWidth < 0 {
		tabWidth = 0
	}

	var b strings.Builder
	prev := toFragment(tokens[0], unwrapParameters)
	b.WriteString(prev.str)

	for _, t := range tokens[1:] {
		next := toFragment(t, unwrapParameters)
		b.WriteString(junction(prev.tail+next.head, next.depth, tabWidth))
		b.WriteString(next.str)
		prev = next
	}

	return b.String()
}

// junction collapses the whitespace requested between two fragments. Any
// newline becomes a single newline indented for the right-hand fragment.
func junction(ws string, depth, tabWidth int) string {
	if !strings.Contains(ws, "\n") {
		return ws
	}
	return "\n" + strings.Repeat(" ", tabWidth*depth)
}

// Pretty formats the tree under root.
func Pretty(root *parser.Value, tabWidth int, unwrapParameters bool) string {
	return Format(Flatten(root, true), tabWidth, unwrapParameters)
}
