/*
Package parser implements an instrumented, error-tolerant parser for the EQL
query language: JSON extended with a bare `@parameter` literal.

# Overview

The parser never fails on malformed input. Parse always returns a best-effort
value tree together with the full token stream and an ordered list of
structured errors, so the same result can drive syntax highlighting, editor
diagnostics and round-trip formatting.

	res := parser.Parse(`{"size": @size, "query": {"match_all": {}}}`, true)
	if err := res.Err(); err != nil {
		// inspect res.Errors for positions and codes
	}
	root := res.Root // *Value

# Token Types

Every token carries its byte offset, 0-based row and column, length, the
literal source text, a semantic Type and a back reference to the Value that
owns it.

  - TypeNull, TypeBoolean, TypeNumber, TypeString, TypeParameter:
    scalar tokens, owned by the scalar value they produced.

  - TypeObject, TypeArray:
    the opening `{` or `[`, owned by the container.

  - TypeObjectDelimiter, TypeArrayDelimiter, TypeObjectTerminator,
    TypeArrayTerminator: `,` `}` and `]`, owned by the container.

  - TypePropertyDelimiter: `:`, owned by the property name value.

  - TypeInvalid: trailing input after the root value.

# Recovery

  - Strings fall back from strict JSON to a lenient escaped form, then to
    "anything up to a structural character", and finally to an empty string.
  - Numbers fall back to a broad numeric character class with value 0.
  - Misspelled literals (`trueee`, `nil`) keep their nominal value and are
    reported as warnings.
  - A `,` where `:` was expected reports a missing value and continues with
    the next property.
  - Values that never produced anything (for example a stray `}`) are pruned
    together with their token.

Array and object descent uses an explicit frame stack, so the nesting depth of
a document is bounded by memory rather than the goroutine stack.

A Result is immutable once Parse returns and may be read concurrently. The
only field written afterwards is Value.Clause, which clause interpreters set
before sharing the tree.
*/
package parser
