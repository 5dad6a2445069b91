package clause

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/eql/parser"
)

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	assert.Equal(t, "root", reg.Root())
	assert.Same(t, reg, DefaultRegistry())

	tests := []struct {
		id   string
		want any
	}{
		{"root", &Structure{}},
		{"bool", &Structure{}},
		{"must", &Variant{}},
		{"term", &Reference{}},
		{"{field:term_value}", &Map{}},
		{"query[]", &Array{}},
		{"sort_order", &Enum{}},
		{"index", &Base{}},
		{"string", &Base{}},
	}
	for _, tt := range tests {
		c, ok := reg.Lookup(tt.id)
		require.True(t, ok, tt.id)
		assert.IsType(t, tt.want, c, tt.id)
		assert.Equal(t, tt.id, c.Name())
	}

	boolClause, _ := reg.Lookup("bool")
	assert.Equal(t, []string{"boost", "filter", "minimum_should_match", "must", "must_not", "should"},
		boolClause.(*Structure).Keywords())
	assert.Equal(t, "boolean clause", boolClause.Describe().DisplayName())

	idx, _ := reg.Lookup("index")
	assert.Equal(t, KindString, idx.(*Base).Kind)
	assert.Equal(t, "index", idx.Describe().DisplayName())
}

func TestLoadRegistry(t *testing.T) {
	t.Parallel()

	reg, err := LoadRegistry([]byte(`
root: doc
clauses:
  doc:
    structure:
      tags: string[]
      meta: "{field:number}"
      kind: null
      child: doc
  kind:
    enum: [a, b]
`))
	require.NoError(t, err)
	assert.Equal(t, "doc", reg.Root())
	assert.Equal(t, []string{"doc", "kind", "number", "string", "string[]", "{field:number}"}, reg.Names())

	arr, _ := reg.Lookup("string[]")
	assert.Equal(t, "string", arr.(*Array).Elem)
	m, _ := reg.Lookup("{field:number}")
	assert.Equal(t, "field", m.(*Map).Key)
	assert.Equal(t, "number", m.(*Map).Elem)
}

func TestLoadRegistryErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", `clauses: {}`, "defines no clauses"},
		{"bad yaml", "clauses: [", "decoding clause registry"},
		{"unknown reference", "clauses:\n  root:\n    type: nothing\n", `unknown clause "nothing"`},
		{"missing root", "clauses:\n  a:\n    type: string\n", `root clause "root" is not defined`},
		{"two kinds", "clauses:\n  root:\n    type: string\n    enum: [a]\n", "only one of"},
		{"self reference", "clauses:\n  root:\n    type: root\n", "refers to itself"},
		{"reference cycle", "clauses:\n  root:\n    type: a\n  a:\n    type: root\n", "reference cycle"},
		{"bad variant", "clauses:\n  root:\n    variant:\n      date: string\n", `unknown json type "date"`},
		{"bad map key", "clauses:\n  root:\n    type: \"{number:string}\"\n", "keys must be field or string"},
		{"required outside", "clauses:\n  root:\n    required: [x]\n    structure:\n      y: string\n", `required property "x"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadRegistry([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRegistryFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "clauses.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clauses:\n  root:\n    type: any\n"), 0o644))

	reg, err := LoadRegistryFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())

	_, err = LoadRegistryFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func clauseName(v *parser.Value) string {
	if v == nil || v.Clause == nil {
		return ""
	}
	return v.Clause.Name()
}

func TestMark(t *testing.T) {
	t.Parallel()

	src := `{
  "index": "movies",
  "from": 0,
  "body": {
    "query": {
      "bool": {
        "filter": [{"term": {"_index": "movies"}}],
        "must": {"match": {"title": "alien"}}
      }
    },
    "sort": {"year": "desc"}
  }
}`
	res := parser.Parse(src, true)
	require.Empty(t, res.Errors)

	errs := Mark(res.Root, DefaultRegistry(), "root")
	assert.Empty(t, errs)

	root := res.Root
	body := root.Property("body").Value
	query := body.Property("query").Value
	boolean := query.Property("bool").Value
	filter := boolean.Property("filter").Value
	term := filter.Children[0].Property("term").Value
	match := boolean.Property("must").Value

	assert.Equal(t, "root", clauseName(root))
	assert.Equal(t, "index", clauseName(root.Property("index").Value))
	assert.Equal(t, "body", clauseName(body))
	assert.Equal(t, "query", clauseName(query))
	assert.Equal(t, "bool", clauseName(boolean))
	assert.Equal(t, "query[]", clauseName(filter))
	assert.Equal(t, "query", clauseName(filter.Children[0]))
	assert.Equal(t, "{field:term_value}", clauseName(term))
	assert.Equal(t, "base", clauseName(term.Property("_index").Value))
	assert.Equal(t, "query", clauseName(match))
	assert.Equal(t, "sort_order", clauseName(body.Property("sort").Value.Property("year").Value))

	kc, ok := boolean.Clause.(parser.KeywordClause)
	require.True(t, ok)
	assert.True(t, kc.HasKeyword("filter"))
	assert.False(t, kc.HasKeyword("_index"))
}

func TestMarkErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		src     string
		codes   []string
		warning []bool
	}{
		{
			name:    "unknown property",
			src:     `{"body": {"qurey": {}}}`,
			codes:   []string{CodeUnknownProperty},
			warning: []bool{true},
		},
		{
			name:    "wrong base type",
			src:     `{"size": "ten"}`,
			codes:   []string{CodeClauseType},
			warning: []bool{false},
		},
		{
			name:    "bad enum value",
			src:     `{"body": {"sort": {"year": "up"}}}`,
			codes:   []string{CodeClauseType},
			warning: []bool{false},
		},
		{
			name:    "variant mismatch",
			src:     `{"body": {"query": {"bool": {"must": 1}}}}`,
			codes:   []string{CodeClauseType},
			warning: []bool{false},
		},
		{
			name:    "missing required property",
			src:     `{"body": {"query": {"match": {"title": {"operator": "and"}}}}}`,
			codes:   []string{CodeRequiredProperty},
			warning: []bool{false},
		},
		{
			name:    "parameters are not checked",
			src:     `{"size": @size, "from": @from, "body": @body}`,
			codes:   nil,
			warning: nil,
		},
		{
			name:    "property warnings come before nested errors",
			src:     `{"size": "x", "nope": 1, "from": "y"}`,
			codes:   []string{CodeUnknownProperty, CodeClauseType, CodeClauseType},
			warning: []bool{true, false, false},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := parser.Parse(tt.src, true)
			require.Empty(t, res.Errors)

			errs := Mark(res.Root, DefaultRegistry(), DefaultRoot)
			require.Len(t, errs, len(tt.codes))
			for i, e := range errs {
				assert.Equal(t, tt.codes[i], e.Code, "error %d", i)
				assert.Equal(t, tt.warning[i], e.Warning, "error %d", i)
				assert.NotNil(t, e.Token)
				assert.NotEmpty(t, e.Message)
			}
		})
	}
}

func TestMarkMessages(t *testing.T) {
	t.Parallel()

	res := parser.Parse(`{"body": {"query": {"bool": {"must": 1}}}, "size": "a"}`, true)
	errs := Mark(res.Root, DefaultRegistry(), DefaultRoot)
	require.Len(t, errs, 2)
	assert.Equal(t, "must clause expects an object or an array, found a number", errs[0].Message)
	assert.Equal(t, "size expects a number, found a string", errs[1].Message)
	assert.Equal(t, `"a"`, errs[1].Token.Text)
}

func TestMarkUnknownClause(t *testing.T) {
	t.Parallel()

	res := parser.Parse(`{"a": 1}`, true)
	assert.Empty(t, Mark(res.Root, DefaultRegistry(), "no_such_clause"))
	assert.Nil(t, res.Root.Clause)
}
