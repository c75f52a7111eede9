package queryfilter

import "strings"

// Operator identifies one filter comparison kind.
type Operator int

const (
	Equal Operator = iota
	NotEqual
	GreaterThan
	GreaterThanOrEqual
	LessThan
	LessThanOrEqual
	Contains
	NotContains
	StartsWith
	EndsWith
	In
	NotIn
	IsNull
	IsNotNull
	Range
)

// JoinOperator is the logical operator combining a filter with its siblings.
type JoinOperator int

const (
	JoinAnd JoinOperator = iota
	JoinOr
)

var operatorTokens = map[string]Operator{
	"eq":          Equal,
	"ne":          NotEqual,
	"gt":          GreaterThan,
	"gte":         GreaterThanOrEqual,
	"lt":          LessThan,
	"lte":         LessThanOrEqual,
	"contains":    Contains,
	"notcontains": NotContains,
	"startswith":  StartsWith,
	"endswith":    EndsWith,
	"in":          In,
	"notin":       NotIn,
	"isnull":      IsNull,
	"isnotnull":   IsNotNull,
	"range":       Range,
}

var operatorNames = map[Operator]string{
	Equal:              "eq",
	NotEqual:           "ne",
	GreaterThan:        "gt",
	GreaterThanOrEqual: "gte",
	LessThan:           "lt",
	LessThanOrEqual:    "lte",
	Contains:           "contains",
	NotContains:        "notcontains",
	StartsWith:         "startswith",
	EndsWith:           "endswith",
	In:                 "in",
	NotIn:              "notin",
	IsNull:             "isnull",
	IsNotNull:          "isnotnull",
	Range:              "range",
}

// ParseOperatorToken maps a query-string operator token to its Operator.
func ParseOperatorToken(token string) (Operator, bool) {
	op, ok := operatorTokens[strings.ToLower(strings.TrimSpace(token))]
	return op, ok
}

func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return "unknown"
}

// IsNullCheck reports whether the operator is meaningful without a value.
func (op Operator) IsNullCheck() bool {
	return op == IsNull || op == IsNotNull
}

func (j JoinOperator) String() string {
	if j == JoinOr {
		return "or"
	}
	return "and"
}
