package queryfilter

import (
	"net/url"
	"testing"
	"time"
)

type garmentDetails struct {
	Material string `json:"material"`
	Season   string `json:"season"`
}

type garment struct {
	Name    string          `json:"name"`
	Brand   string          `json:"brand"`
	Price   float64         `json:"price"`
	Stock   int             `json:"stock"`
	Active  bool            `json:"active"`
	AddedAt time.Time       `json:"added_at"`
	Details *garmentDetails `json:"details"`
}

func testGarments() []garment {
	return []garment{
		{Name: "Silk Slip Dress", Brand: "Maison Vela", Price: 210, Stock: 4, Active: true, Details: &garmentDetails{Material: "silk", Season: "SS"}},
		{Name: "Wool Overcoat", Brand: "Atelier Nord", Price: 480, Stock: 0, Active: true, Details: &garmentDetails{Material: "wool", Season: "FW"}},
		{Name: "Linen Shirt", Brand: "Maison Vela", Price: 95, Stock: 12, Active: true},
		{Name: "Denim Jacket", Brand: "Bleu Forge", Price: 150, Stock: 7, Active: false, Details: &garmentDetails{Material: "denim", Season: "SS"}},
	}
}

type person struct {
	Age int `json:"age"`
}

func TestGreaterThanBoundaries(t *testing.T) {
	people := []person{{Age: 29}, {Age: 30}, {Age: 31}}
	params := []Parameter{{Field: "age", Operator: GreaterThan, Value: "30"}}

	out, err := Apply(people, params)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 1 || out[0].Age != 31 {
		t.Fatalf("expected exactly the age-31 record, got %+v", out)
	}
}

func TestRangeInclusive(t *testing.T) {
	people := []person{{Age: 9}, {Age: 10}, {Age: 15}, {Age: 20}, {Age: 21}}
	out, err := Apply(people, []Parameter{{Field: "age", Operator: Range, Value: "10,20"}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected [10,20] inclusive to match 3 records, got %+v", out)
	}
}

func TestRangeReversedBoundsMatchNothing(t *testing.T) {
	people := []person{{Age: 10}, {Age: 15}, {Age: 20}}
	out, err := Apply(people, []Parameter{{Field: "age", Operator: Range, Value: "20,10"}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("reversed range bounds must match nothing, got %+v", out)
	}
}

func TestRangeArityFailsCompilation(t *testing.T) {
	_, err := Apply([]person{{Age: 10}}, []Parameter{{Field: "age", Operator: Range, Value: "10,20,30"}})
	if err == nil {
		t.Fatal("wrong range arity must fail the whole filter list")
	}
}

func TestImplicitAndDegradesToOr(t *testing.T) {
	// One explicit OR plus one defaulted AND: the group compiles to a pure
	// OR across both.
	params := []Parameter{
		{Field: "brand", Operator: Equal, Value: "Bleu Forge", Join: JoinOr, JoinExplicit: true},
		{Field: "price", Operator: LessThan, Value: "100", Join: JoinAnd},
	}
	out, err := Apply(testGarments(), params)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	// Denim Jacket matches the brand, Linen Shirt matches the price.
	if len(out) != 2 {
		t.Fatalf("expected OR semantics to match 2 garments, got %+v", out)
	}
}

func TestExplicitAndSplitsExpression(t *testing.T) {
	// (brand OR brand) AND (active) when AND was explicitly requested.
	params := []Parameter{
		{Field: "brand", Operator: Equal, Value: "Bleu Forge", Join: JoinOr, JoinExplicit: true},
		{Field: "brand", Operator: Equal, Value: "Maison Vela", Join: JoinOr, JoinExplicit: true},
		{Field: "active", Operator: Equal, Value: "true", Join: JoinAnd, JoinExplicit: true},
	}
	out, err := Apply(testGarments(), params)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	// Both Maison Vela garments are active; the Bleu Forge jacket is not.
	if len(out) != 2 {
		t.Fatalf("expected (OR) AND (AND) to match 2 garments, got %+v", out)
	}
	for _, g := range out {
		if g.Brand != "Maison Vela" {
			t.Fatalf("inactive garment leaked through the AND side: %+v", g)
		}
	}
}

func TestUnknownOperatorDroppedRestApplies(t *testing.T) {
	out, err := ApplyValues(testGarments(), url.Values{
		"price[bogus]": {"100"},
		"stock[gt]":    {"5"},
	})
	if err != nil {
		t.Fatalf("ApplyValues failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected the stock filter to still apply, got %+v", out)
	}
}

func TestIsNullOnValueTypeNeverMatches(t *testing.T) {
	out, err := Apply(testGarments(), []Parameter{{Field: "stock", Operator: IsNull}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("IsNull on a non-nullable field must match nothing, got %+v", out)
	}
	out, err = Apply(testGarments(), []Parameter{{Field: "stock", Operator: IsNotNull}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("IsNotNull on a non-nullable field must match everything, got %d", len(out))
	}
}

func TestIsNullOnPointerField(t *testing.T) {
	out, err := Apply(testGarments(), []Parameter{{Field: "details", Operator: IsNull}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Linen Shirt" {
		t.Fatalf("expected only the garment without details, got %+v", out)
	}
}

func TestNestedPathWithNilIntermediate(t *testing.T) {
	out, err := Apply(testGarments(), []Parameter{{Field: "details.material", Operator: Equal, Value: "silk"}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 1 || out[0].Name != "Silk Slip Dress" {
		t.Fatalf("expected the silk dress only, got %+v", out)
	}
}

func TestStringOperatorsCaseInsensitive(t *testing.T) {
	out, err := Apply(testGarments(), []Parameter{{Field: "brand", Operator: StartsWith, Value: "MAISON"}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected case-insensitive prefix match on 2 garments, got %+v", out)
	}
	out, err = Apply(testGarments(), []Parameter{{Field: "name", Operator: NotContains, Value: "dress"}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 garments without 'dress' in the name, got %+v", out)
	}
}

func TestInDropsUnconvertibleElements(t *testing.T) {
	out, err := Apply(testGarments(), []Parameter{{Field: "stock", Operator: In, Value: "4,notanumber,7"}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected stock in {4,7} to match 2 garments, got %+v", out)
	}
}

func TestInAllInvalidMatchesNothing(t *testing.T) {
	out, err := Apply(testGarments(), []Parameter{{Field: "stock", Operator: In, Value: "x,y"}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("all-invalid membership list must match nothing, got %+v", out)
	}
}

func TestCoercionFailureMatchesNothing(t *testing.T) {
	out, err := Apply(testGarments(), []Parameter{{Field: "price", Operator: GreaterThan, Value: "expensive"}})
	if err != nil {
		t.Fatalf("coercion failure must not be an error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("unparseable operand must match nothing, got %+v", out)
	}
}

func TestUnresolvablePathDropped(t *testing.T) {
	out, err := Apply(testGarments(), []Parameter{
		{Field: "nosuchfield", Operator: Equal, Value: "x"},
		{Field: "brand", Operator: Equal, Value: "Bleu Forge"},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 1 || out[0].Brand != "Bleu Forge" {
		t.Fatalf("expected the resolvable filter to still apply, got %+v", out)
	}
}

func TestSubGroupJoinedWithAnd(t *testing.T) {
	params := []Parameter{
		{Field: "active", Operator: Equal, Value: "true"},
		{Field: "brand", Operator: Equal, Value: "Maison Vela", Join: JoinOr, JoinExplicit: true, Group: 1},
		{Field: "brand", Operator: Equal, Value: "Atelier Nord", Join: JoinOr, JoinExplicit: true, Group: 1},
	}
	out, err := Apply(testGarments(), params)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected active AND (brand OR brand) to match 3 garments, got %+v", out)
	}
}

func TestApplyNoParamsReturnsAll(t *testing.T) {
	items := testGarments()
	out, err := Apply(items, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(out) != len(items) {
		t.Fatalf("no filters must return every record, got %d", len(out))
	}
}

func TestCompileValidatesParameters(t *testing.T) {
	_, err := Compile[garment]([]Parameter{{Field: "brand", Operator: IsNull, Value: "x"}})
	if err == nil {
		t.Fatal("invalid parameter arity must fail compilation")
	}
}

func TestSortByFieldPath(t *testing.T) {
	items := testGarments()
	Sort(items, []SortSpec{{Field: "price", Descending: true}})
	if items[0].Name != "Wool Overcoat" || items[len(items)-1].Name != "Linen Shirt" {
		t.Fatalf("descending price sort wrong: %+v", items)
	}

	Sort(items, ParseSortSpecs("brand,price:desc"))
	if items[0].Brand != "Atelier Nord" {
		t.Fatalf("ascending brand sort wrong: %+v", items)
	}
	if items[1].Brand != "Bleu Forge" {
		t.Fatalf("ascending brand sort wrong: %+v", items)
	}
	if items[2].Price < items[3].Price {
		t.Fatalf("secondary descending price sort wrong: %+v", items)
	}
}
