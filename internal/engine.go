package internal

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gnolang/eql/clause"
	tt "github.com/gnolang/eql/internal/types"
	"github.com/gnolang/eql/parser"
)

// Issue categories.
const (
	CategorySyntax = "syntax"
	CategoryClause = "clause"
)

var clauseCodes = map[string]bool{
	clause.CodeUnknownProperty:  true,
	clause.CodeClauseType:       true,
	clause.CodeRequiredProperty: true,
}

var literals = map[byte]string{'t': "true", 'f': "false", 'n': "null"}

// Options configures an Engine.
type Options struct {
	// Registry defaults to clause.DefaultRegistry.
	Registry *clause.Registry
	// Root is the clause a file is checked against, the registry root when empty.
	Root            string
	AllowParameters bool
	// Rules overrides the severity of error codes. SeverityOff ignores a code.
	Rules map[string]tt.ConfigRule
}

// Engine parses query files and checks them against a clause grammar.
// Run and RunSource may be called concurrently once the engine is set up.
type Engine struct {
	registry        *clause.Registry
	root            string
	allowParameters bool
	severities      map[string]tt.Severity
	ignoredRules    map[string]bool
	ignoredPaths    []string
}

// NewEngine creates a new check engine.
func NewEngine(opts Options) (*Engine, error) {
	reg := opts.Registry
	if reg == nil {
		reg = clause.DefaultRegistry()
	}
	root := opts.Root
	if root == "" {
		root = reg.Root()
	}
	if _, ok := reg.Lookup(root); !ok {
		return nil, fmt.Errorf("root clause %q is not defined", root)
	}

	e := &Engine{
		registry:        reg,
		root:            root,
		allowParameters: opts.AllowParameters,
		severities:      make(map[string]tt.Severity),
	}
	e.applyRules(opts.Rules)
	return e, nil
}

func (e *Engine) applyRules(rules map[string]tt.ConfigRule) {
	for code, rule := range rules {
		if rule.Severity == tt.SeverityOff {
			e.IgnoreRule(code)
			continue
		}
		e.severities[code] = rule.Severity
	}
}

// IgnoreRule drops every issue with the given code.
func (e *Engine) IgnoreRule(rule string) {
	if e.ignoredRules == nil {
		e.ignoredRules = make(map[string]bool)
	}
	e.ignoredRules[rule] = true
}

// IgnorePath skips a file, a directory tree or a glob pattern.
func (e *Engine) IgnorePath(path string) {
	e.ignoredPaths = append(e.ignoredPaths, filepath.Clean(path))
}

func (e *Engine) isIgnoredPath(path string) bool {
	path = filepath.Clean(path)
	for _, ignored := range e.ignoredPaths {
		if path == ignored || strings.HasPrefix(path, ignored+string(filepath.Separator)) {
			return true
		}
		if ok, _ := filepath.Match(ignored, path); ok {
			return true
		}
		if ok, _ := filepath.Match(ignored, filepath.Base(path)); ok {
			return true
		}
	}
	return false
}

// Run checks the given file and returns its issues ordered by position.
func (e *Engine) Run(filename string) ([]tt.Issue, error) {
	if e.isIgnoredPath(filename) {
		return nil, nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return e.check(filename, content), nil
}

// RunSource checks an in-memory query.
func (e *Engine) RunSource(source []byte) ([]tt.Issue, error) {
	return e.check("", source), nil
}

func (e *Engine) check(filename string, source []byte) []tt.Issue {
	res := parser.Parse(string(source), e.allowParameters)
	errs := append(res.Errors, clause.Mark(res.Root, e.registry, e.root)...)

	issues := make([]tt.Issue, 0, len(errs))
	for _, err := range errs {
		if e.ignoredRules[err.Code] {
			continue
		}
		issues = append(issues, e.toIssue(filename, err))
	}

	slices.SortStableFunc(issues, func(a, b tt.Issue) int {
		if a.Start.Offset != b.Start.Offset {
			return a.Start.Offset - b.Start.Offset
		}
		return strings.Compare(a.Rule, b.Rule)
	})
	return issues
}

func (e *Engine) toIssue(filename string, err *parser.Error) tt.Issue {
	issue := tt.Issue{
		Rule:     err.Code,
		Category: CategorySyntax,
		Filename: filename,
		Message:  err.Message,
		Severity: tt.SeverityError,
	}
	if err.Warning {
		issue.Severity = tt.SeverityWarning
	}
	if sev, ok := e.severities[err.Code]; ok {
		issue.Severity = sev
	}
	if clauseCodes[err.Code] {
		issue.Category = CategoryClause
		if err.Value != nil {
			if c, ok := err.Value.Clause.(clause.Clause); ok && c.Describe().URL != "" {
				issue.Note = "see " + c.Describe().URL
			}
		}
	}
	if err.Code == parser.CodePossibleLiteral && err.Token != nil {
		if err.Token.Text != "" {
			issue.Suggestion = literals[err.Token.Text[0]]
		}
	}

	issue.Start, issue.End = tokenRange(filename, err.Token)
	return issue
}

// tokenRange converts a token to 1-based positions. End is the column of
// the last character.
func tokenRange(filename string, tok *parser.Token) (start, end token.Position) {
	if tok == nil {
		start = token.Position{Filename: filename, Line: 1, Column: 1}
		return start, start
	}
	start = token.Position{
		Filename: filename,
		Offset:   tok.Offset,
		Line:     tok.Row + 1,
		Column:   tok.Col + 1,
	}
	if tok.Length == 0 || tok.ToCol == 0 {
		return start, start
	}
	end = token.Position{
		Filename: filename,
		Offset:   tok.End(),
		Line:     tok.ToRow + 1,
		Column:   tok.ToCol,
	}
	return start, end
}
