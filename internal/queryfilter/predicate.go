package queryfilter

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type predicate func(reflect.Value) bool

func matchAll(reflect.Value) bool  { return true }
func matchNone(reflect.Value) bool { return false }

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
)

// pathKey keys the process-wide path resolution cache by (type, member path).
type pathKey struct {
	typ  reflect.Type
	path string
}

type pathInfo struct {
	steps []int
	leaf  reflect.Type
	ok    bool
}

// pathCache memoizes reflection lookups. Append-only; bounded by the number
// of distinct (type, path) pairs seen by the process.
var pathCache sync.Map

// resolvePath locates a dotted field path on a struct type, matching segment
// names case-insensitively against field names and json tag names.
func resolvePath(typ reflect.Type, path string) pathInfo {
	key := pathKey{typ: typ, path: strings.ToLower(path)}
	if cached, ok := pathCache.Load(key); ok {
		return cached.(pathInfo)
	}
	info := lookupPath(typ, path)
	pathCache.Store(key, info)
	return info
}

func lookupPath(typ reflect.Type, path string) pathInfo {
	current := typ
	var steps []int
	for _, segment := range strings.Split(path, ".") {
		for current.Kind() == reflect.Pointer {
			current = current.Elem()
		}
		if current.Kind() != reflect.Struct {
			return pathInfo{}
		}
		idx := findField(current, segment)
		if idx < 0 {
			return pathInfo{}
		}
		field := current.Field(idx)
		steps = append(steps, idx)
		current = field.Type
	}
	if len(steps) == 0 {
		return pathInfo{}
	}
	return pathInfo{steps: steps, leaf: current, ok: true}
}

func findField(t reflect.Type, name string) int {
	name = strings.TrimSpace(name)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if strings.EqualFold(f.Name, name) {
			return i
		}
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && strings.EqualFold(tag, name) {
			return i
		}
	}
	return -1
}

// walk follows a resolved field index chain, dereferencing intermediate
// pointers. A nil intermediate reports false; the final field is returned
// as-is (possibly a nil pointer) so null checks can inspect it.
func walk(v reflect.Value, steps []int) (reflect.Value, bool) {
	for _, idx := range steps {
		for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		v = v.Field(idx)
	}
	return v, true
}

func derefLeaf(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}

func unwrapType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}

// coerce parses a raw string operand into the leaf field's underlying type.
// Numbers, booleans, timestamps and UUIDs use invariant parsing; a failed
// parse reports false so the caller can compile a constant-false predicate.
func coerce(raw string, t reflect.Type) (any, bool) {
	raw = strings.TrimSpace(raw)
	switch t {
	case timeType:
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts, true
		}
		if ts, err := time.Parse("2006-01-02", raw); err == nil {
			return ts, true
		}
		return nil, false
	case uuidType:
		id, err := uuid.Parse(raw)
		return id, err == nil
	}
	switch t.Kind() {
	case reflect.String:
		return raw, true
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		return b, err == nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		return n, err == nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		return n, err == nil
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil
	}
	return nil, false
}

// operandOf normalizes a field value to the same shape coerce produces.
func operandOf(v reflect.Value) (any, bool) {
	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time), true
	case uuidType:
		return v.Interface().(uuid.UUID), true
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), true
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	return nil, false
}

// compareOperands orders two operands of the same normalized type.
func compareOperands(a, b any) (int, bool) {
	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, false
		}
		return cmpOrdered(av, bv), true
	case uint64:
		bv, ok := b.(uint64)
		if !ok {
			return 0, false
		}
		return cmpOrdered(av, bv), true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		return cmpOrdered(av, bv), true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		return cmpBool(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		}
		return 0, true
	case uuid.UUID:
		bv, ok := b.(uuid.UUID)
		if !ok {
			return 0, false
		}
		return bytes.Compare(av[:], bv[:]), true
	}
	return 0, false
}

func cmpOrdered[T int64 | uint64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	}
	return 1
}

// compileFilter builds the predicate for one filter. A nil predicate with a
// nil error means the filter does not apply to the target type and should be
// omitted from the final expression.
func compileFilter(root reflect.Type, p Parameter) (predicate, error) {
	if p.Operator == Range {
		if n := len(splitList(p.Value)); n != 2 {
			return nil, fmt.Errorf("%w: filter %q: range requires exactly two comma-separated values, got %d", ErrBadFilter, p.Field, n)
		}
	}

	info := resolvePath(root, p.Field)
	if !info.ok {
		return nil, nil
	}
	elem := unwrapType(info.leaf)
	steps := info.steps

	switch p.Operator {
	case IsNull, IsNotNull:
		wantNil := p.Operator == IsNull
		if !isNilable(info.leaf) {
			// A non-nilable field can never be null.
			if wantNil {
				return matchNone, nil
			}
			return matchAll, nil
		}
		return func(item reflect.Value) bool {
			leaf, ok := walk(item, steps)
			isNil := !ok || leaf.IsNil()
			return isNil == wantNil
		}, nil

	case Contains, NotContains, StartsWith, EndsWith:
		if elem.Kind() != reflect.String {
			return matchNone, nil
		}
		needle := strings.ToLower(p.Value)
		op := p.Operator
		return func(item reflect.Value) bool {
			leaf, ok := walkLeaf(item, steps)
			if !ok || leaf.Kind() != reflect.String {
				return false
			}
			haystack := strings.ToLower(leaf.String())
			switch op {
			case Contains:
				return strings.Contains(haystack, needle)
			case NotContains:
				return !strings.Contains(haystack, needle)
			case StartsWith:
				return strings.HasPrefix(haystack, needle)
			default:
				return strings.HasSuffix(haystack, needle)
			}
		}, nil

	case In, NotIn:
		var members []any
		for _, part := range splitList(p.Value) {
			if operand, ok := coerce(part, elem); ok {
				members = append(members, operand)
			}
		}
		if len(members) == 0 {
			return matchNone, nil
		}
		negate := p.Operator == NotIn
		return func(item reflect.Value) bool {
			operand, ok := leafOperand(item, steps)
			if !ok {
				return false
			}
			found := false
			for _, member := range members {
				if cmp, ok := compareOperands(operand, member); ok && cmp == 0 {
					found = true
					break
				}
			}
			return found != negate
		}, nil

	case Range:
		bounds := splitList(p.Value)
		low, okLow := coerce(bounds[0], elem)
		high, okHigh := coerce(bounds[1], elem)
		if !okLow || !okHigh {
			return matchNone, nil
		}
		return func(item reflect.Value) bool {
			operand, ok := leafOperand(item, steps)
			if !ok {
				return false
			}
			cmpLow, okL := compareOperands(operand, low)
			cmpHigh, okH := compareOperands(operand, high)
			return okL && okH && cmpLow >= 0 && cmpHigh <= 0
		}, nil

	default:
		target, ok := coerce(p.Value, elem)
		if !ok {
			return matchNone, nil
		}
		op := p.Operator
		return func(item reflect.Value) bool {
			operand, ok := leafOperand(item, steps)
			if !ok {
				return false
			}
			cmp, ok := compareOperands(operand, target)
			if !ok {
				return false
			}
			switch op {
			case Equal:
				return cmp == 0
			case NotEqual:
				return cmp != 0
			case GreaterThan:
				return cmp > 0
			case GreaterThanOrEqual:
				return cmp >= 0
			case LessThan:
				return cmp < 0
			case LessThanOrEqual:
				return cmp <= 0
			default:
				return false
			}
		}, nil
	}
}

func walkLeaf(item reflect.Value, steps []int) (reflect.Value, bool) {
	leaf, ok := walk(item, steps)
	if !ok {
		return reflect.Value{}, false
	}
	return derefLeaf(leaf)
}

func leafOperand(item reflect.Value, steps []int) (any, bool) {
	leaf, ok := walkLeaf(item, steps)
	if !ok {
		return nil, false
	}
	return operandOf(leaf)
}

// compileGroup builds the boolean expression for one group and its children.
// A nil predicate means every condition in the group was dropped.
func compileGroup(root reflect.Type, g Group) (predicate, error) {
	if len(g.Filters) == 0 && len(g.Groups) == 0 {
		return nil, fmt.Errorf("%w: filter group %d must contain at least one filter or sub-group", ErrBadFilter, g.ID)
	}

	type term struct {
		pred     predicate
		join     JoinOperator
		explicit bool
	}
	var terms []term
	for _, f := range g.Filters {
		pred, err := compileFilter(root, f)
		if err != nil {
			return nil, err
		}
		if pred == nil {
			continue
		}
		terms = append(terms, term{pred: pred, join: f.Join, explicit: f.JoinExplicit})
	}

	var orSide, andSide []predicate
	hasOr := false
	for _, t := range terms {
		if t.join == JoinOr {
			hasOr = true
		}
	}
	for _, t := range terms {
		switch {
		case t.join == JoinOr:
			orSide = append(orSide, t.pred)
		case t.explicit:
			andSide = append(andSide, t.pred)
		default:
			// Implicit AND never fights explicit OR: with any OR present
			// a defaulted filter joins the OR side.
			if hasOr {
				orSide = append(orSide, t.pred)
			} else {
				andSide = append(andSide, t.pred)
			}
		}
	}

	var expr predicate
	switch {
	case len(orSide) == 0:
		expr = chainAnd(andSide)
	case len(andSide) == 0:
		expr = chainOr(orSide)
	default:
		expr = andPred(chainOr(orSide), chainAnd(andSide))
	}

	for _, child := range g.Groups {
		childExpr, err := compileGroup(root, child)
		if err != nil {
			return nil, err
		}
		if childExpr == nil {
			continue
		}
		if expr == nil {
			expr = childExpr
		} else {
			expr = andPred(expr, childExpr)
		}
	}
	return expr, nil
}

func chainAnd(preds []predicate) predicate {
	if len(preds) == 0 {
		return nil
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return func(item reflect.Value) bool {
		for _, p := range preds {
			if !p(item) {
				return false
			}
		}
		return true
	}
}

func chainOr(preds []predicate) predicate {
	if len(preds) == 0 {
		return nil
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return func(item reflect.Value) bool {
		for _, p := range preds {
			if p(item) {
				return true
			}
		}
		return false
	}
}

func andPred(a, b predicate) predicate {
	return func(item reflect.Value) bool {
		return a(item) && b(item)
	}
}
