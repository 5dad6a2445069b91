package printer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fatih/color"

	"github.com/gnolang/eql/parser"
)

// Style is the highlighting class of a token.
type Style int

const (
	StylePlain Style = iota
	StyleProperty
	StyleError
	StyleLiteral // null, booleans and numbers
	StyleString
	StyleBracket
	StyleVariable
)

var styleNames = [...]string{
	StylePlain:    "plain",
	StyleProperty: "property",
	StyleError:    "error",
	StyleLiteral:  "literal",
	StyleString:   "string",
	StyleBracket:  "bracket",
	StyleVariable: "variable",
}

func (s Style) String() string {
	if s < 0 || int(s) >= len(styleNames) {
		return "plain"
	}
	return styleNames[s]
}

// StyleOf classifies a token. Recognized property names are properties;
// unrecognized ones are strings.
func StyleOf(t FlaggedToken) Style {
	if t.IsKeyword {
		return StyleProperty
	}
	switch t.Type {
	case parser.TypeUnknown, parser.TypeInvalid:
		return StyleError
	case parser.TypeNull, parser.TypeBoolean, parser.TypeNumber:
		return StyleLiteral
	case parser.TypeString:
		return StyleString
	case parser.TypeObject, parser.TypeArray,
		parser.TypeArrayDelimiter, parser.TypeArrayTerminator,
		parser.TypePropertyDelimiter, parser.TypeObjectDelimiter, parser.TypeObjectTerminator:
		return StyleBracket
	case parser.TypeParameter:
		return StyleVariable
	}
	return StylePlain
}

// PaintFunc decorates the text of one token.
type PaintFunc func(style Style, text string) string

// Highlight repaints source token by token. Text between tokens is copied
// unchanged, so an identity PaintFunc reproduces source exactly.
func Highlight(source string, tokens []FlaggedToken, paint PaintFunc) string {
	ordered := slices.Clone(tokens)
	slices.SortStableFunc(ordered, func(a, b FlaggedToken) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	var b strings.Builder
	b.Grow(len(source))

	cursor := 0
	for _, t := range ordered {
		if t.Offset < cursor || t.End() > len(source) {
			continue
		}
		b.WriteString(source[cursor:t.Offset])
		b.WriteString(paint(StyleOf(t), source[t.Offset:t.End()]))
		cursor = t.End()
	}
	b.WriteString(source[cursor:])

	return b.String()
}

// Palette maps styles to terminal colors.
type Palette map[Style]*color.Color

// DefaultPalette returns the terminal colors used by the command line.
func DefaultPalette() Palette {
	return Palette{
		StyleProperty: color.New(color.FgCyan, color.Bold),
		StyleError:    color.New(color.FgRed, color.Underline),
		StyleLiteral:  color.New(color.FgYellow),
		StyleString:   color.New(color.FgGreen),
		StyleBracket:  color.New(color.FgHiBlack),
		StyleVariable: color.New(color.FgMagenta),
	}
}

// Paint is a PaintFunc backed by the palette. Styles without a color are
// left as they are.
func (p Palette) Paint(style Style, text string) string {
	c, ok := p[style]
	if !ok {
		return text
	}
	return c.Sprint(text)
}
