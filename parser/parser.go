package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const eof = -1

var (
	strictStringRe  = regexp.MustCompile(`^"(?:\\(?:["\\/bfnrt]|u[a-fA-F0-9]{4})|[^"\\\x00-\x1F\x7F])*"`)
	lenientStringRe = regexp.MustCompile(`^"(?:\\.|[^"\\])*"`)
	partialStringRe = regexp.MustCompile(`^".+[^,:\[\]{}"]`)
	numberRe        = regexp.MustCompile(`^-?(?:0|[1-9][0-9]*)(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?`)
	looseNumberRe   = regexp.MustCompile(`^[-.eE0-9]+`)
	parameterRe     = regexp.MustCompile(`^@[a-zA-Z_.][\w.:+]*`)
	wordRe          = regexp.MustCompile(`^\w+`)
	unknownRe       = regexp.MustCompile(`^.[a-zA-Z_0-9]*`)
)

// ParameterPattern matches a complete parameter literal such as `@size`.
var ParameterPattern = regexp.MustCompile(`^@[a-zA-Z_.][\w.:+]*$`)

// Result is the outcome of one parse. All fields are complete when Parse
// returns and are never modified afterwards.
type Result struct {
	Source string
	Root   *Value   // nil when no value could be read
	Tokens []*Token // every surviving token, in source order
	Values []*Value // every surviving value, in the order reading began
	Errors []*Error // in the order they were found
}

// Value returns the native root value.
func (r *Result) Value() any {
	if r.Root == nil {
		return nil
	}
	return r.Root.Native
}

// Err joins every non-warning error, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, e := range r.Errors {
		if !e.Warning {
			errs = append(errs, e)
		}
	}
	return errors.Join(errs...)
}

type frameState int

const (
	stateElement frameState = iota // array waiting for an element
	stateName                       // object waiting for a property name
	stateValue                      // object waiting for a property value
)

// frame is an open array or object.
type frame struct {
	value *Value
	state frameState
	prop  *Property // property being read, objects only
}

type parser struct {
	src             string
	pos             int
	allowParameters bool

	rows  *rowTracker
	stack []frame
	res   *Result
}

// Parse reads source eagerly and returns the parse context. It never fails:
// problems are reported in Result.Errors and the tree holds whatever could be
// recovered. When allowParameters is false every `@name` literal is an error.
func Parse(source string, allowParameters bool) *Result {
	p := &parser{
		src:             source,
		allowParameters: allowParameters,
		rows:            newRowTracker(source),
		res:             &Result{Source: source},
	}

	p.res.Root = p.readValue()
	if p.peek() != eof {
		p.readTrailing()
	}

	return p.res
}

// readValue reads one complete value, descending into containers with the
// frame stack.
func (p *parser) readValue() *Value {
	base := len(p.stack)
	result, open := p.startValue()

	for len(p.stack) > base {
		if open || p.deliver(result) {
			result, open = p.startValue()
		} else {
			result = p.closeFrame()
		}
	}

	return result
}

// startValue begins a value at the next significant character. Scalars are
// read completely. For `{` and `[` a frame is pushed and open is true.
// A nil value means nothing was read; its token has been pruned.
func (p *parser) startValue() (v *Value, open bool) {
	c := p.peek()
	v = &Value{Type: TypeInvalid}
	p.res.Values = append(p.res.Values, v)
	tok := p.addToken(v, TypeUnknown)

	defined := true
	switch {
	case c == '"':
		v.Type = TypeString
		v.Native = p.readString()
	case c == '-' || (c >= '0' && c <= '9'):
		v.Type = TypeNumber
		v.Native = p.readNumber()
	case c == '{':
		v.Type = TypeObject
		v.Native = map[string]any{}
		tok.Type = TypeObject
		p.advance(1)
		p.stack = append(p.stack, frame{value: v, state: stateName})
		return v, true
	case c == '[':
		v.Type = TypeArray
		v.Native = []any{}
		tok.Type = TypeArray
		p.advance(1)
		p.stack = append(p.stack, frame{value: v, state: stateElement})
		return v, true
	case c == 't':
		v.Type = TypeBoolean
		v.Native = true
		p.readLiteral("true")
	case c == 'f':
		v.Type = TypeBoolean
		v.Native = false
		p.readLiteral("false")
	case c == 'n':
		v.Type = TypeNull
		v.Native = nil
		p.readLiteral("null")
	case c == '@':
		v.Type = TypeParameter
		v.Native = p.readParameter()
	case c == '}' || c == ']':
		defined = false
	default:
		p.errorf(CodeUnknownToken, false, "Unknown token found when expecting a value")
		p.matchToken(unknownRe)
		defined = false
	}

	if !defined {
		p.res.Values = p.res.Values[:len(p.res.Values)-1]
		p.res.Tokens = p.res.Tokens[:len(p.res.Tokens)-1]
		return nil, false
	}

	tok.Type = v.Type
	return v, false
}

// deliver hands a finished child to the innermost frame. It reports whether
// the frame expects another child.
func (p *parser) deliver(child *Value) bool {
	f := &p.stack[len(p.stack)-1]

	switch f.state {
	case stateElement:
		if child == nil {
			return false
		}
		f.value.Children = append(f.value.Children, child)
		f.value.Native = append(f.value.Native.([]any), child.Native)

		if p.peek() != ',' {
			return false
		}
		p.addToken(f.value, TypeArrayDelimiter)
		p.advance(1)
		return true

	case stateName:
		if child == nil {
			return false
		}

		key, isString := child.Native.(string)
		if !isString || child.Type != TypeString {
			p.errorf(CodePropertyName, false,
				"Object property names must be strings, but found a %s instead", child.Type)
			key = Stringify(child.Native)
		}

		obj := f.value.Native.(map[string]any)
		if _, exists := obj[key]; exists {
			p.errorf(CodeDuplicateProperty, false, "Duplicate property names are not allowed")
		}

		f.prop = &Property{Key: key, Name: child}
		f.value.Properties = append(f.value.Properties, f.prop)

		switch p.peek() {
		case ':':
			p.addToken(child, TypePropertyDelimiter)
			p.advance(1)
			f.state = stateValue
			return true
		case ',':
			p.errorf(CodeMissingValue, false, "Object property's value is missing")
			p.addToken(f.value, TypeObjectDelimiter)
			p.advance(1)
			return true
		}
		return false

	case stateValue:
		if child == nil {
			p.errorf(CodeMissingValue, false, "Object property's value is missing")
			return false
		}
		f.prop.Value = child
		f.value.Native.(map[string]any)[f.prop.Key] = child.Native

		if p.peek() != ',' {
			return false
		}
		p.addToken(f.value, TypeObjectDelimiter)
		p.advance(1)
		f.state = stateName
		return true
	}

	return false
}

// closeFrame pops the innermost frame and consumes its terminator.
func (p *parser) closeFrame() *Value {
	f := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]

	if f.value.Type == TypeArray {
		if p.peek() == ']' {
			p.addToken(f.value, TypeArrayTerminator)
			p.advance(1)
		} else {
			p.errorf(CodeMissingBracket, false, `Missing or misplaced array closing bracket, "]"`)
		}
		return f.value
	}

	if p.peek() == '}' {
		p.addToken(f.value, TypeObjectTerminator)
		p.advance(1)
	} else {
		p.errorf(CodeMissingBrace, false, `Missing or misplaced object closing brace, "}"`)
	}
	return f.value
}

func (p *parser) readString() string {
	if m, ok := p.matchToken(strictStringRe); ok {
		var s string
		if err := json.Unmarshal([]byte(m), &s); err == nil {
			return s
		}
		return m[1 : len(m)-1]
	}

	p.errorf(CodeStringFormat, false, "Unknown string format")

	// a string that still ends in a double quote
	if m, ok := p.matchToken(lenientStringRe); ok {
		return m[1 : len(m)-1]
	}

	// a string cut short by a structural character
	if m, ok := p.matchToken(partialStringRe); ok {
		return m[1:]
	}

	p.advance(1)
	return ""
}

func (p *parser) readNumber() float64 {
	if m, ok := p.matchToken(numberRe); ok {
		// out of range literals keep their infinite value
		f, _ := strconv.ParseFloat(m, 64)
		return f
	}

	p.errorf(CodeNumberFormat, false, "Unknown number format")
	p.matchToken(looseNumberRe)
	return 0
}

// readLiteral consumes word when it is not followed by a word character.
// Otherwise it consumes the whole word and reports a warning; the caller
// keeps the nominal value either way.
func (p *parser) readLiteral(word string) {
	rest := p.src[p.pos:]
	if strings.HasPrefix(rest, word) && (len(rest) == len(word) || !isWordChar(rest[len(word)])) {
		p.advance(len(word))
		p.setToken()
		return
	}

	p.errorf(CodePossibleLiteral, true,
		"Unknown value type, possibly a boolean or null (true, false, and null are valid)")
	p.matchToken(wordRe)
}

func (p *parser) readParameter() Parameter {
	m, ok := p.matchToken(parameterRe)
	if !ok {
		p.advance(1)
		p.setToken()
	}
	if !ok || !p.allowParameters {
		p.errorf(CodeInvalidParameter, false,
			"Invalid parameter name. Parameter names must begin with a letter, underscore or period, "+
				"and can only contain letters, numbers, underscores, periods, colons and plus signs.")
		return Parameter("")
	}
	return Parameter(m[1:])
}

// readTrailing captures everything after the root value as one token.
func (p *parser) readTrailing() {
	tok := p.addToken(p.res.Root, TypeInvalid)
	end := len(strings.TrimRightFunc(p.src, isSpace))
	if end > p.pos {
		p.pos = end
	}
	p.setToken()
	p.errorAt(tok, p.res.Root, CodeUnexpectedToken, false, "Unexpected token at the end of the query string")
}

// peek skips whitespace and returns the next byte, or eof.
func (p *parser) peek() int {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c < utf8.RuneSelf {
			if !isSpace(rune(c)) {
				break
			}
			p.pos++
			continue
		}
		r, size := utf8.DecodeRuneInString(p.src[p.pos:])
		if !isSpace(r) {
			break
		}
		p.pos += size
	}

	if p.pos >= len(p.src) {
		return eof
	}
	return int(p.src[p.pos])
}

func (p *parser) advance(n int) {
	p.pos += n
	if p.pos > len(p.src) {
		p.pos = len(p.src)
	}
}

// matchToken consumes a match of re at the current position and stretches
// the current token over it.
func (p *parser) matchToken(re *regexp.Regexp) (string, bool) {
	loc := re.FindStringIndex(p.src[p.pos:])
	if loc == nil || loc[1] == 0 {
		return "", false
	}
	m := p.src[p.pos : p.pos+loc[1]]
	p.advance(loc[1])
	p.setToken()
	return m, true
}

// addToken starts a one-character token at the current position.
func (p *parser) addToken(owner *Value, typ Type) *Token {
	end := p.pos + 1
	if end > len(p.src) {
		end = len(p.src)
	}

	t := &Token{
		Offset: p.pos,
		Length: end - p.pos,
		Text:   p.src[p.pos:end],
		Type:   typ,
		Owner:  owner,
	}
	t.Row, t.Col = p.rows.position(t.Offset)
	t.ToRow, t.ToCol = p.rows.position(end)

	p.res.Tokens = append(p.res.Tokens, t)
	if owner != nil {
		owner.Tokens = append(owner.Tokens, t)
	}
	return t
}

// setToken stretches the current token up to the current position.
func (p *parser) setToken() {
	t := p.currentToken()
	if t == nil {
		return
	}
	t.Length = p.pos - t.Offset
	t.Text = p.src[t.Offset:p.pos]
	t.ToRow, t.ToCol = p.rows.position(p.pos)
}

func (p *parser) currentToken() *Token {
	if len(p.res.Tokens) == 0 {
		return nil
	}
	return p.res.Tokens[len(p.res.Tokens)-1]
}

func (p *parser) currentValue() *Value {
	if len(p.res.Values) == 0 {
		return nil
	}
	return p.res.Values[len(p.res.Values)-1]
}

func (p *parser) errorf(code string, warning bool, format string, args ...any) {
	p.errorAt(p.currentToken(), p.currentValue(), code, warning, fmt.Sprintf(format, args...))
}

func (p *parser) errorAt(tok *Token, v *Value, code string, warning bool, msg string) {
	p.res.Errors = append(p.res.Errors, &Error{
		Token:   tok,
		Value:   v,
		Code:    code,
		Message: msg,
		Warning: warning,
	})
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
