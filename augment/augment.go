// Package augment merges index, type and pagination constraints into an
// existing search request without disturbing the query already there.
package augment

import (
	"errors"

	"github.com/huandu/go-clone"

	"github.com/gnolang/eql/parser"
)

// ErrNotObject is returned when the document to augment is not an object.
var ErrNotObject = errors.New("augment: root is not an object")

// Options selects what is merged into a request. Empty strings and nil
// pointers add nothing.
type Options struct {
	Index string
	Type  string
	From  *int
	Size  *int
}

// Filter returns the term clauses selecting the index and the type.
func (o Options) Filter() []any {
	var filter []any
	if o.Index != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"_index": o.Index}})
	}
	if o.Type != "" {
		filter = append(filter, map[string]any{"term": map[string]any{"_type": o.Type}})
	}
	return filter
}

// Augment returns a copy of root with the filter of opts merged into
// body.query.bool.filter and from/size set when root has none. root is
// never modified.
//
// The filter is merged as follows:
//
//   - no body: body becomes {query: {bool: {filter}}}
//   - body without query: query becomes {bool: {filter}}
//   - query without bool: the old query moves to bool.must next to filter
//   - bool without filter: filter is added
//   - filter is an array: the new clauses are appended
//   - filter is a single clause: it becomes an array of old and new clauses
//
// Appending is not deduplicated, so augmenting twice with the same index
// repeats its term clause.
func Augment(root map[string]any, opts Options) map[string]any {
	out, _ := clone.Clone(root).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}

	if filter := opts.Filter(); len(filter) > 0 {
		mergeFilter(out, filter)
	}

	setDefault(out, "from", opts.From)
	setDefault(out, "size", opts.Size)

	return out
}

// AugmentValue augments the native value of a parsed tree.
func AugmentValue(v *parser.Value, opts Options) (map[string]any, error) {
	if v == nil || v.Type != parser.TypeObject {
		return nil, ErrNotObject
	}
	root, ok := v.Native.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return Augment(root, opts), nil
}

func mergeFilter(root map[string]any, filter []any) {
	body, exists := root["body"]
	if !exists || body == nil {
		root["body"] = boolQuery(filter)
		return
	}
	bodyObj, ok := body.(map[string]any)
	if !ok {
		return
	}

	query, exists := bodyObj["query"]
	if !exists || query == nil {
		bodyObj["query"] = boolQuery(filter)["query"]
		return
	}
	queryObj, ok := query.(map[string]any)
	if !ok {
		return
	}

	boolean, exists := queryObj["bool"]
	if !exists || boolean == nil {
		bodyObj["query"] = map[string]any{
			"bool": map[string]any{
				"must":   queryObj,
				"filter": filter,
			},
		}
		return
	}
	boolObj, ok := boolean.(map[string]any)
	if !ok {
		return
	}

	switch old := boolObj["filter"].(type) {
	case nil:
		boolObj["filter"] = filter
	case []any:
		boolObj["filter"] = append(old, filter...)
	default:
		boolObj["filter"] = append([]any{old}, filter...)
	}
}

func boolQuery(filter []any) map[string]any {
	return map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"filter": filter,
			},
		},
	}
}

// setDefault stores n as a number under key unless key is present.
func setDefault(root map[string]any, key string, n *int) {
	if n == nil {
		return
	}
	if _, exists := root[key]; exists {
		return
	}
	root[key] = float64(*n)
}
