package queryfilter

import (
	"fmt"
	"sort"
)

// Group is a bucket of sibling filters plus nested sub-groups, expressing a
// parenthesized boolean combination. Group 0 is the implicit root; every other
// id becomes an immediate child of the root.
type Group struct {
	ID      int
	Filters []Parameter
	Groups  []Group
}

// Validate checks that the group expresses at least one condition.
func (g Group) Validate() error {
	if len(g.Filters) == 0 && len(g.Groups) == 0 {
		return fmt.Errorf("%w: filter group %d must contain at least one filter or sub-group", ErrBadFilter, g.ID)
	}
	for _, child := range g.Groups {
		if err := child.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BuildGroups arranges a flat filter list into the group tree. Child groups
// are ordered by id so the result is stable.
func BuildGroups(params []Parameter) Group {
	root := Group{ID: 0}
	children := make(map[int]*Group)
	for _, p := range params {
		if p.Group == 0 {
			root.Filters = append(root.Filters, p)
			continue
		}
		child, ok := children[p.Group]
		if !ok {
			child = &Group{ID: p.Group}
			children[p.Group] = child
		}
		child.Filters = append(child.Filters, p)
	}

	ids := make([]int, 0, len(children))
	for id := range children {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		root.Groups = append(root.Groups, *children[id])
	}
	return root
}
