package queryfilter

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadFilter marks structural filter mistakes (bad arity, empty groups)
// that are surfaced to the caller instead of being silently dropped.
var ErrBadFilter = errors.New("bad filter")

// Parameter is one parsed filter condition.
type Parameter struct {
	// Field is the target property path, dot-separated for nested fields.
	Field string
	// Operator selects the comparison applied to Field.
	Operator Operator
	// Value is the raw string operand. In, NotIn and Range carry a
	// comma-joined list; null checks carry an empty string.
	Value string
	// Join combines this condition with its siblings.
	Join JoinOperator
	// JoinExplicit is true when the caller tagged the filter with an
	// or_/and_ prefix rather than inheriting the request default.
	JoinExplicit bool
	// Group assigns the filter to a parenthesized bucket. Zero is the root.
	Group int
}

// Validate checks the operator/value arity invariants.
func (p Parameter) Validate() error {
	if strings.TrimSpace(p.Field) == "" {
		return fmt.Errorf("%w: filter has no field name", ErrBadFilter)
	}
	switch p.Operator {
	case IsNull, IsNotNull:
		if p.Value != "" {
			return fmt.Errorf("%w: filter %q: %s takes no value", ErrBadFilter, p.Field, p.Operator)
		}
	case In, NotIn:
		if len(splitList(p.Value)) == 0 {
			return fmt.Errorf("%w: filter %q: %s requires a non-empty comma-separated list", ErrBadFilter, p.Field, p.Operator)
		}
	case Range:
		if n := len(splitList(p.Value)); n != 2 {
			return fmt.Errorf("%w: filter %q: range requires exactly two comma-separated values, got %d", ErrBadFilter, p.Field, n)
		}
	default:
		if strings.TrimSpace(p.Value) == "" {
			return fmt.Errorf("%w: filter %q: %s requires a value", ErrBadFilter, p.Field, p.Operator)
		}
	}
	return nil
}

// splitList splits a comma-joined operand, trimming whitespace and dropping
// empty elements.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
