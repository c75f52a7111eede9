package queryfilter

import (
	"net/url"
	"reflect"
	"testing"
)

func TestParseBracketForm(t *testing.T) {
	params, err := Parse(url.Values{"price[gte]": {"25"}})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(params) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(params))
	}
	p := params[0]
	if p.Field != "price" || p.Operator != GreaterThanOrEqual || p.Value != "25" {
		t.Fatalf("unexpected parameter: %+v", p)
	}
	if p.Join != JoinAnd || p.JoinExplicit {
		t.Fatalf("expected implicit AND join, got %+v", p)
	}
}

func TestParseUnderscoreForm(t *testing.T) {
	params, err := Parse(url.Values{"brand_contains": {"velvet"}})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(params) != 1 {
		t.Fatalf("expected 1 parameter, got %d", len(params))
	}
	if params[0].Field != "brand" || params[0].Operator != Contains {
		t.Fatalf("unexpected parameter: %+v", params[0])
	}
}

func TestParseUnderscoreFieldName(t *testing.T) {
	params, err := Parse(url.Values{"first_name_eq": {"Ada"}})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(params) != 1 || params[0].Field != "first_name" || params[0].Operator != Equal {
		t.Fatalf("unexpected parameters: %+v", params)
	}
}

func TestParseLogicControlKey(t *testing.T) {
	params, err := Parse(url.Values{
		"logic":      {"or"},
		"price[gte]": {"25"},
		"stock[gt]":  {"0"},
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(params) != 2 {
		t.Fatalf("expected 2 parameters, got %d", len(params))
	}
	for _, p := range params {
		if p.Join != JoinOr {
			t.Fatalf("expected default OR join for %q, got %s", p.Field, p.Join)
		}
		if p.JoinExplicit {
			t.Fatalf("logic default must not mark joins explicit: %+v", p)
		}
	}
}

func TestParseExplicitJoinPrefixes(t *testing.T) {
	params, err := Parse(url.Values{
		"or_brand[eq]":  {"Maison"},
		"and_stock[gt]": {"0"},
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	byField := map[string]Parameter{}
	for _, p := range params {
		byField[p.Field] = p
	}
	if p := byField["brand"]; p.Join != JoinOr || !p.JoinExplicit {
		t.Fatalf("or_ prefix not honored: %+v", p)
	}
	if p := byField["stock"]; p.Join != JoinAnd || !p.JoinExplicit {
		t.Fatalf("and_ prefix not honored: %+v", p)
	}
}

func TestParseGroupLookup(t *testing.T) {
	params, err := Parse(url.Values{
		"group1":       {"brand,price"},
		"brand[eq]":    {"Maison"},
		"price[lte]":   {"100"},
		"category[eq]": {"dresses"},
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	groups := map[string]int{}
	for _, p := range params {
		groups[p.Field] = p.Group
	}
	if groups["brand"] != 1 || groups["price"] != 1 {
		t.Fatalf("group1 members not tagged: %v", groups)
	}
	if groups["category"] != 0 {
		t.Fatalf("ungrouped filter should stay in root: %v", groups)
	}
}

func TestParseUnknownOperatorDropped(t *testing.T) {
	params, err := Parse(url.Values{
		"price[bogus]": {"10"},
		"stock[gt]":    {"0"},
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(params) != 1 || params[0].Field != "stock" {
		t.Fatalf("expected only the stock filter to survive, got %+v", params)
	}
}

func TestParseBareKeyDropped(t *testing.T) {
	params, err := Parse(url.Values{"page": {"2"}, "stock[gt]": {"0"}})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(params) != 1 || params[0].Field != "stock" {
		t.Fatalf("keys without operator syntax must be ignored, got %+v", params)
	}
}

func TestParseBlankValueSkippedUnlessNullCheck(t *testing.T) {
	params, err := Parse(url.Values{
		"brand[eq]":           {""},
		"details[isnull]":     {""},
		"category[isnotnull]": {"ignored"},
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(params) != 2 {
		t.Fatalf("expected the null checks only, got %+v", params)
	}
	for _, p := range params {
		if !p.Operator.IsNullCheck() {
			t.Fatalf("non null-check filter survived with blank value: %+v", p)
		}
		if p.Value != "" {
			t.Fatalf("null-check filter must carry an empty value: %+v", p)
		}
	}
}

func TestParseRangeArityError(t *testing.T) {
	if _, err := Parse(url.Values{"price[range]": {"10"}}); err == nil {
		t.Fatal("one-ended range must fail the parse")
	}
	if _, err := Parse(url.Values{"price[range]": {"10,20,30"}}); err == nil {
		t.Fatal("three-ended range must fail the parse")
	}
}

func TestParseIdempotent(t *testing.T) {
	values := url.Values{
		"logic":        {"or"},
		"group1":       {"brand"},
		"brand[eq]":    {"Maison"},
		"price[range]": {"10,20"},
		"and_stock_gt": {"0"},
	}
	first, err := Parse(values)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	second, err := Parse(values)
	if err != nil {
		t.Fatalf("second Parse failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("parse not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestParameterValidateArity(t *testing.T) {
	cases := []struct {
		name    string
		param   Parameter
		wantErr bool
	}{
		{"isnull with value", Parameter{Field: "a", Operator: IsNull, Value: "x"}, true},
		{"isnull empty", Parameter{Field: "a", Operator: IsNull}, false},
		{"in empty", Parameter{Field: "a", Operator: In, Value: " , "}, true},
		{"in list", Parameter{Field: "a", Operator: In, Value: "x,y"}, false},
		{"range one value", Parameter{Field: "a", Operator: Range, Value: "10"}, true},
		{"range two values", Parameter{Field: "a", Operator: Range, Value: "10,20"}, false},
		{"eq empty", Parameter{Field: "a", Operator: Equal, Value: ""}, true},
		{"missing field", Parameter{Operator: Equal, Value: "x"}, true},
	}
	for _, tc := range cases {
		err := tc.param.Validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestGroupValidateEmpty(t *testing.T) {
	if err := (Group{ID: 3}).Validate(); err == nil {
		t.Fatal("empty group must be invalid")
	}
	g := Group{ID: 0, Groups: []Group{{ID: 1, Filters: []Parameter{{Field: "a", Operator: Equal, Value: "x"}}}}}
	if err := g.Validate(); err != nil {
		t.Fatalf("group with sub-group should be valid: %v", err)
	}
}
