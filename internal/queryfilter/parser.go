package queryfilter

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Control keys consumed out-of-band by the parser: "logic" sets the request
// default join operator, "group<N>" names the fields belonging to group N as a
// comma-separated list (e.g. group1=brand,price). Group membership is resolved
// with a lookup built before any filter is parsed, so the result does not
// depend on map iteration order.
const logicKey = "logic"

// Parse turns query-string-shaped input into an ordered filter list.
//
// Blank keys are skipped. Blank values are skipped unless the key carries a
// null-check operator. or_/and_ prefixes override the request default join and
// are recorded as explicit. Both field[op] and field_op syntaxes are accepted;
// keys with an unrecognized operator token are dropped silently. Arity
// violations on recognized operators (a one-ended range) fail the whole parse.
func Parse(values url.Values) ([]Parameter, error) {
	defaultJoin := JoinAnd
	groupByField := make(map[string]int)

	for key, vals := range values {
		lower := strings.ToLower(strings.TrimSpace(key))
		if lower == logicKey {
			if len(vals) > 0 && strings.EqualFold(strings.TrimSpace(vals[0]), "or") {
				defaultJoin = JoinOr
			}
			continue
		}
		if id, ok := parseGroupKey(lower); ok && len(vals) > 0 {
			for _, field := range splitList(vals[0]) {
				groupByField[strings.ToLower(field)] = id
			}
		}
	}

	// Deterministic output order regardless of map order.
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var params []Parameter
	for _, key := range keys {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if lower == logicKey {
			continue
		}
		if _, ok := parseGroupKey(lower); ok {
			continue
		}

		value := ""
		if vals := values[key]; len(vals) > 0 {
			value = strings.TrimSpace(vals[0])
		}

		join := defaultJoin
		explicit := false
		name := trimmed
		switch {
		case strings.HasPrefix(lower, "or_"):
			join = JoinOr
			explicit = true
			name = name[len("or_"):]
		case strings.HasPrefix(lower, "and_"):
			join = JoinAnd
			explicit = true
			name = name[len("and_"):]
		}

		field, op, ok := splitFieldOperator(name)
		if !ok {
			// Unknown or missing operator token: the filter is ignored.
			continue
		}
		if value == "" && !op.IsNullCheck() {
			continue
		}
		if op.IsNullCheck() {
			value = ""
		}

		param := Parameter{
			Field:        field,
			Operator:     op,
			Value:        value,
			Join:         join,
			JoinExplicit: explicit,
			Group:        groupByField[strings.ToLower(field)],
		}
		if err := param.Validate(); err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

// parseGroupKey recognizes group<N> control keys.
func parseGroupKey(key string) (int, bool) {
	rest, ok := strings.CutPrefix(key, "group")
	if !ok || rest == "" {
		return 0, false
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

// splitFieldOperator extracts the field path and operator from a key in
// either bracket form (price[gte]) or underscore form (price_gte).
func splitFieldOperator(name string) (string, Operator, bool) {
	if open := strings.IndexByte(name, '['); open > 0 && strings.HasSuffix(name, "]") {
		field := strings.TrimSpace(name[:open])
		token := name[open+1 : len(name)-1]
		op, ok := ParseOperatorToken(token)
		if !ok || field == "" {
			return "", 0, false
		}
		return field, op, true
	}
	if idx := strings.LastIndexByte(name, '_'); idx > 0 {
		if op, ok := ParseOperatorToken(name[idx+1:]); ok {
			return strings.TrimSpace(name[:idx]), op, true
		}
	}
	return "", 0, false
}
