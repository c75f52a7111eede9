// Package queryfilter compiles operator-tagged query-string parameters into a
// single predicate over an arbitrary record type. It is a pure transform:
// side-effect free, CPU-bound, and safe for concurrent use.
//
// Unknown operator tokens, unresolvable field paths and unparseable operands
// degrade the affected filter instead of failing the query. Structural
// mistakes the caller claims to have provided completely (a one-ended range,
// an empty group) are surfaced as errors.
package queryfilter

import (
	"net/url"
	"reflect"
)

// Compile builds one predicate over T from a pre-parsed filter list. An empty
// list compiles to a predicate that matches everything.
func Compile[T any](params []Parameter) (func(T) bool, error) {
	if len(params) == 0 {
		return func(T) bool { return true }, nil
	}
	for _, p := range params {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}

	root := reflect.TypeOf((*T)(nil)).Elem()
	pred, err := compileGroup(root, BuildGroups(params))
	if err != nil {
		return nil, err
	}
	if pred == nil {
		// Every filter was dropped; the query degrades to match-all.
		return func(T) bool { return true }, nil
	}
	return func(item T) bool {
		return pred(reflect.ValueOf(item))
	}, nil
}

// Apply narrows items to those matching the filter list.
func Apply[T any](items []T, params []Parameter) ([]T, error) {
	if len(params) == 0 {
		return items, nil
	}
	match, err := Compile[T](params)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

// ApplyValues parses query-string values and narrows items in one step.
func ApplyValues[T any](items []T, values url.Values) ([]T, error) {
	params, err := Parse(values)
	if err != nil {
		return nil, err
	}
	return Apply(items, params)
}
