package queryfilter

import (
	"reflect"
	"sort"
	"strings"
)

// SortSpec orders results by one field path.
type SortSpec struct {
	Field      string
	Descending bool
}

// ParseSortSpecs parses a sort query value of the form
// "price:desc,name" into ordered sort specs. Blank segments are skipped.
func ParseSortSpecs(raw string) []SortSpec {
	var specs []SortSpec
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, dir, _ := strings.Cut(part, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		specs = append(specs, SortSpec{
			Field:      field,
			Descending: strings.EqualFold(strings.TrimSpace(dir), "desc"),
		})
	}
	return specs
}

// Sort stably orders items in place by the given specs. Specs whose field
// path does not resolve on T are ignored, matching the filter engine's
// permissiveness.
func Sort[T any](items []T, specs []SortSpec) {
	if len(items) < 2 || len(specs) == 0 {
		return
	}
	root := reflect.TypeOf((*T)(nil)).Elem()

	type resolved struct {
		steps      []int
		descending bool
	}
	var keys []resolved
	for _, spec := range specs {
		info := resolvePath(root, spec.Field)
		if !info.ok {
			continue
		}
		keys = append(keys, resolved{steps: info.steps, descending: spec.Descending})
	}
	if len(keys) == 0 {
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		vi := reflect.ValueOf(items[i])
		vj := reflect.ValueOf(items[j])
		for _, key := range keys {
			a, okA := leafOperand(vi, key.steps)
			b, okB := leafOperand(vj, key.steps)
			if !okA || !okB {
				// Nil along the path sorts last regardless of direction.
				if okA != okB {
					return okA
				}
				continue
			}
			cmp, ok := compareOperands(a, b)
			if !ok || cmp == 0 {
				continue
			}
			if key.descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
