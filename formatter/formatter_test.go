package formatter

import (
	"go/token"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/gnolang/eql/internal"
	tt "github.com/gnolang/eql/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestGenerateFormattedIssue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		lines  []string
		issues []tt.Issue
		want   string
	}{
		{
			name:  "single line",
			lines: []string{`{"size": "10"}`},
			issues: []tt.Issue{{
				Rule:     "clause-type",
				Filename: "q.json",
				Start:    token.Position{Line: 1, Column: 10},
				End:      token.Position{Line: 1, Column: 13},
				Message:  "size expects a number, found a string",
				Severity: tt.SeverityError,
			}},
			want: `error: clause-type
 --> q.json:1:10
  |
1 | {"size": "10"}
  |          ~~~~
  = size expects a number, found a string

`,
		},
		{
			name:  "suggestion with common indent",
			lines: []string{"{", `  "size": nul`, "}"},
			issues: []tt.Issue{{
				Rule:       "possible-literal",
				Filename:   "q.json",
				Start:      token.Position{Line: 2, Column: 11},
				End:        token.Position{Line: 2, Column: 13},
				Message:    "m",
				Suggestion: "null",
				Severity:   tt.SeverityWarning,
			}},
			want: `warning: possible-literal
 --> q.json:2:11
  |
2 | "size": nul
  |         ~~~
  = m
Suggestion:
  |
2 | "size": null
  |

`,
		},
		{
			name:  "note without position",
			lines: []string{"{}"},
			issues: []tt.Issue{{
				Rule:     "r",
				Message:  "msg",
				Note:     "see x",
				Severity: tt.SeverityInfo,
			}},
			want: `info: r
 --> <stdin>:0:0
  |
  = msg
Note: see x

`,
		},
		{
			name:  "multiple lines",
			lines: []string{`["a`, `b"]`},
			issues: []tt.Issue{{
				Rule:     "r",
				Filename: "f",
				Start:    token.Position{Line: 1, Column: 2},
				End:      token.Position{Line: 2, Column: 2},
				Message:  "msg",
			}},
			want: `error: r
 --> f:1:2
  |
1 | ["a
2 | b"]
  |  ~~
  = msg

`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := GenerateFormattedIssue(tt.issues, &internal.SourceCode{Lines: tt.lines})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateFormattedIssueConcatenates(t *testing.T) {
	t.Parallel()

	code := &internal.SourceCode{Lines: []string{"[1, 2]"}}
	one := tt.Issue{Rule: "a", Start: token.Position{Line: 1, Column: 2}, End: token.Position{Line: 1, Column: 2}, Message: "x"}
	two := one
	two.Rule = "b"

	assert.Equal(t,
		GenerateFormattedIssue([]tt.Issue{one}, code)+GenerateFormattedIssue([]tt.Issue{two}, code),
		GenerateFormattedIssue([]tt.Issue{one, two}, code))
}

func TestSuggestedLine(t *testing.T) {
	t.Parallel()

	lines := []string{`[tru]`}
	issue := tt.Issue{
		Start:      token.Position{Line: 1, Column: 2},
		End:        token.Position{Line: 1, Column: 4},
		Suggestion: "true",
	}
	assert.Equal(t, "[true]", suggestedLine(issue, lines, ""))

	issue.End.Column = 9
	assert.Empty(t, suggestedLine(issue, lines, ""))

	issue.End = token.Position{Line: 2, Column: 1}
	assert.Empty(t, suggestedLine(issue, lines, ""))

	issue.Suggestion = ""
	assert.Empty(t, suggestedLine(issue, lines, ""))
}

func TestCalculateVisualColumn(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line   string
		column int
		want   int
	}{
		{"abc", 1, 0},
		{"abc", 3, 2},
		{"\tabc", 2, 8},
		{"a\tb", 3, 8},
		{"abc", -1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateVisualColumn(tt.line, tt.column), "%q:%d", tt.line, tt.column)
	}
}

func TestFindCommonIndent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "  ", findCommonIndent([]string{"    a", "", "  b"}))
	assert.Equal(t, "", findCommonIndent([]string{"a", "  b"}))
	assert.Equal(t, "", findCommonIndent(nil))
	assert.Equal(t, "\t", findCommonIndent([]string{"\t\ta", "\tb"}))
}
