package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/eql/clause"
	tt "github.com/gnolang/eql/internal/types"
	"github.com/gnolang/eql/lint"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the command line with fresh flags. Commands share package
// state, so tests using it do not run in parallel.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	if args == nil {
		// a nil slice makes cobra fall back to os.Args
		args = []string{}
	}
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.json", `{"size": 10}`)
	bad := writeFile(t, dir, "bad.json", `{"size": "10"}`)
	noConfig := filepath.Join(dir, "none.yaml")

	out, err := execute(t, "", "check", "--config", noConfig, dir)
	require.ErrorIs(t, err, ErrIssuesFound)
	assert.Contains(t, out, "error: clause-type\n")
	assert.Contains(t, out, bad+":1:10")
	assert.Contains(t, out, "= size expects a number, found a string")

	_, err = execute(t, "", "check", "--config", noConfig, "--ignore", "clause-type", dir)
	assert.NoError(t, err)

	_, err = execute(t, "", "check", "--config", noConfig, "--ignore-paths", bad, dir)
	assert.NoError(t, err)

	// paths without a subcommand behave like check
	_, err = execute(t, "", "--config", noConfig, bad)
	assert.ErrorIs(t, err, ErrIssuesFound)

	_, err = execute(t, "", "check")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrIssuesFound)
}

func TestCheckJSON(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{"sise": 1}`)
	noConfig := filepath.Join(dir, "none.yaml")

	out, err := execute(t, "", "check", "--config", noConfig, "--json", bad)
	require.ErrorIs(t, err, ErrIssuesFound)

	var got map[string][]tt.Issue
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got[bad], 1)
	assert.Equal(t, clause.CodeUnknownProperty, got[bad][0].Rule)
	assert.Equal(t, tt.SeverityWarning, got[bad][0].Severity)

	report := filepath.Join(dir, "report.json")
	out, err = execute(t, "", "check", "--config", noConfig, "--json", "-o", report, bad)
	require.ErrorIs(t, err, ErrIssuesFound)
	assert.Empty(t, out)
	data, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"unknown-property"`)
}

func TestCheckConfig(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{"sise": 1}`)
	config := writeFile(t, dir, "eql.yaml", "rules:\n  unknown-property:\n    severity: off\n")

	_, err := execute(t, "", "check", "--config", config, bad)
	assert.NoError(t, err)
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), lint.DefaultConfigPath)

	out, err := execute(t, "", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	config, err := lint.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "eql", config.Name)
	assert.Equal(t, tt.SeverityWarning, config.Rules[clause.CodeUnknownProperty].Severity)
	assert.Equal(t, tt.SeverityError, config.Rules[clause.CodeClauseType].Severity)
}

func TestFmt(t *testing.T) {
	dir := t.TempDir()
	noConfig := filepath.Join(dir, "none.yaml")

	out, err := execute(t, "[1,2]", "fmt", "--config", noConfig)
	require.NoError(t, err)
	assert.Equal(t, "[\n  1,\n  2\n]\n", out)

	out, err = execute(t, `["@size"]`, "fmt", "--config", noConfig, "--tab", "4", "--unwrap")
	require.NoError(t, err)
	assert.Equal(t, "[\n    @size\n]\n", out)

	_, err = execute(t, `[1,`, "fmt", "--config", noConfig)
	assert.Error(t, err)
}

func TestFmtFiles(t *testing.T) {
	dir := t.TempDir()
	noConfig := filepath.Join(dir, "none.yaml")
	messy := writeFile(t, dir, "messy.json", `[1,2]`)
	writeFile(t, dir, "tidy.json", "[\n  1\n]\n")

	out, err := execute(t, "", "fmt", "--config", noConfig, "-l", dir)
	require.NoError(t, err)
	assert.Equal(t, messy+"\n", out)

	_, err = execute(t, "", "fmt", "--config", noConfig, "-w", dir)
	require.NoError(t, err)
	data, err := os.ReadFile(messy)
	require.NoError(t, err)
	assert.Equal(t, "[\n  1,\n  2\n]\n", string(data))

	out, err = execute(t, "", "fmt", "--config", noConfig, "-l", dir)
	require.NoError(t, err)
	assert.Empty(t, out)

	broken := writeFile(t, dir, "broken.json", `{"a": }`)
	_, err = execute(t, "", "fmt", "--config", noConfig, "-w", dir)
	assert.ErrorIs(t, err, errNotFormatted)
	data, err = os.ReadFile(broken)
	require.NoError(t, err)
	assert.Equal(t, `{"a": }`, string(data))
}

func TestFill(t *testing.T) {
	dir := t.TempDir()
	yamlParams := writeFile(t, dir, "params.yaml", "size: 10\nuser:\n  name: ripley\n")
	jsonParams := writeFile(t, dir, "params.json", `{"size": 5, "user": {"name": "dallas"}}`)
	query := writeFile(t, dir, "q.json", `{"size": @size, "query": {"match": {"name": "@user.name"}}}`)

	out, err := execute(t, "", "fill", "--params", yamlParams, query)
	require.NoError(t, err)
	assert.Equal(t, `{"size":10,"query":{"match":{"name":"ripley"}}}`+"\n", out)

	out, err = execute(t, "", "fill", "--params", jsonParams, query)
	require.NoError(t, err)
	assert.Equal(t, `{"size":5,"query":{"match":{"name":"dallas"}}}`+"\n", out)

	out, err = execute(t, `{"terms": {"id": @parent.ids}}`, "fill", "--params",
		writeFile(t, dir, "parent.yaml", "parent:\n  ids: [a, b]\n"), "--runtime", "parent", "--parent")
	require.NoError(t, err)
	assert.Equal(t, `{"terms":{"id":["a","b"]}}`+"\n", out)

	out, err = execute(t, "", "fill", "--params", yamlParams, "--set", "size=3", "--set", "user.name=ash", query)
	require.NoError(t, err)
	assert.Equal(t, `{"size":3,"query":{"match":{"name":"ash"}}}`+"\n", out)

	out, err = execute(t, "", "fill", "--set", "size=7", "--set", "user.name=true", query)
	require.NoError(t, err)
	assert.Equal(t, `{"size":7,"query":{"match":{"name":true}}}`+"\n", out)

	_, err = execute(t, "", "fill", "--set", "size", query)
	assert.Error(t, err)

	_, err = execute(t, "", "fill", query)
	assert.Error(t, err)

	_, err = execute(t, "@x", "fill", "--parent")
	assert.Error(t, err)
}

func TestAugment(t *testing.T) {
	out, err := execute(t, `{"body": {"query": {"match_all": {}}}}`, "augment", "--index", "movies", "--size", "10")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]any{
		"body": map[string]any{"query": map[string]any{"bool": map[string]any{
			"must":   map[string]any{"match_all": map[string]any{}},
			"filter": []any{map[string]any{"term": map[string]any{"_index": "movies"}}},
		}}},
		"size": float64(10),
	}, got)

	out, err = execute(t, `{"size": 5}`, "augment", "--from", "0", "--size", "10", "--diff")
	require.NoError(t, err)
	var patch []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &patch))
	require.Len(t, patch, 1)
	assert.Equal(t, "add", patch[0]["op"])
	assert.Equal(t, "/from", patch[0]["path"])
	assert.Equal(t, float64(0), patch[0]["value"])

	_, err = execute(t, `[1]`, "augment", "--index", "movies")
	assert.Error(t, err)
}

func TestAugmentParameters(t *testing.T) {
	dir := t.TempDir()
	noConfig := filepath.Join(dir, "none.yaml")
	config := writeFile(t, dir, "eql.yaml", "parser:\n  allow_parameters: true\n")
	query := `{"size": @size}`

	_, err := execute(t, query, "augment", "--config", noConfig, "--from", "0")
	assert.Error(t, err)

	out, err := execute(t, query, "augment", "--config", config, "--from", "0")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]any{"size": "@size", "from": float64(0)}, got)
}

func TestHighlight(t *testing.T) {
	dir := t.TempDir()
	noConfig := filepath.Join(dir, "none.yaml")
	src := "{\n  \"size\": 10, \"body\": {\"query\": @q}\n}  "

	out, err := execute(t, src, "highlight", "--config", noConfig)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestRootHelp(t *testing.T) {
	out, err := execute(t, "")
	require.NoError(t, err)
	assert.Contains(t, out, "check")
	assert.Contains(t, out, "fmt")
}
