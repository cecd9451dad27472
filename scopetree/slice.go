package scopetree

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/quarry/locator"
)

// Locator dimensions read by SlicedTree.
const (
	DimensionMaxChildren   = "maxChildren"
	DimensionOrderBy       = "orderBy"
	DimensionSubTreeRootID = "subTreeRootId"
)

// NoLimit disables the children cap.
const NoLimit = -1

// Compare orders sibling nodes.
type Compare[D any, C Counters[C]] func(a, b Node[D, C]) int

// ByName orders nodes by scope name.
func ByName[D any, C Counters[C]](desc bool) Compare[D, C] {
	return func(a, b Node[D, C]) int {
		c := strings.Compare(a.Scope().Name, b.Scope().Name)
		if desc {
			return -c
		}
		return c
	}
}

// ByCount orders nodes by counter total. Ties are ordered by name ascending.
func ByCount[D any, C Counters[C]](desc bool) Compare[D, C] {
	return func(a, b Node[D, C]) int {
		c := cmp.Compare(a.Counters().Count(), b.Counters().Count())
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.Scope().Name, b.Scope().Name)
	}
}

// ParseOrder parses "name" or "count" with an optional ":asc" or ":desc"
// suffix. Names default to ascending order and counts to descending.
func ParseOrder[D any, C Counters[C]](text string) (Compare[D, C], error) {
	field, dir, hasDir := strings.Cut(text, ":")
	var desc bool
	switch field {
	case "name":
		desc = false
	case "count":
		desc = true
	default:
		return nil, fmt.Errorf("%w: unknown order field %q", ErrInvalidOrder, field)
	}
	if hasDir {
		switch strings.ToLower(dir) {
		case "asc":
			desc = false
		case "desc":
			desc = true
		default:
			return nil, fmt.Errorf("%w: unknown order direction %q", ErrInvalidOrder, dir)
		}
	}
	if field == "name" {
		return ByName[D, C](desc), nil
	}
	return ByCount[D, C](desc), nil
}

// SliceOptions controls how a tree is flattened for display.
type SliceOptions[D any, C Counters[C]] struct {
	// Compare orders the children of every node. Defaults to count descending.
	Compare Compare[D, C]

	// Stop ends the descent: a node for which it returns true is included
	// but its children are not.
	Stop func(Node[D, C]) bool

	// MaxChildren keeps only the first children of every node after ordering.
	MaxChildren int

	// RootID starts the slice at the node with this id instead of the root.
	RootID string
}

// SliceOptionsFromLocator reads maxChildren, orderBy and subTreeRootId.
func SliceOptionsFromLocator[D any, C Counters[C]](loc *locator.Locator) (SliceOptions[D, C], error) {
	opts := SliceOptions[D, C]{MaxChildren: NoLimit}

	maxChildren, ok, err := loc.DimensionAsInt64(DimensionMaxChildren)
	if err != nil {
		return opts, err
	}
	if ok {
		if maxChildren < 0 {
			return opts, fmt.Errorf("%w: %s must not be negative", locator.ErrInvalidValue, DimensionMaxChildren)
		}
		opts.MaxChildren = int(maxChildren)
	}

	order, ok, err := loc.Dimension(DimensionOrderBy)
	if err != nil {
		return opts, err
	}
	if ok {
		opts.Compare, err = ParseOrder[D, C](order)
		if err != nil {
			return opts, err
		}
	}

	rootID, _, err := loc.Dimension(DimensionSubTreeRootID)
	if err != nil {
		return opts, err
	}
	opts.RootID = rootID
	return opts, nil
}

// Slice flattens the tree depth first. Every node appears after its parent,
// and siblings appear in opts.Compare order. Counters always reflect the
// whole tree, including children left out by MaxChildren.
func (t *Tree[D, C]) Slice(opts SliceOptions[D, C]) ([]Node[D, C], error) {
	start := t.Root()
	if opts.RootID != "" {
		n, ok := t.Node(opts.RootID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, opts.RootID)
		}
		start = n
	}
	compare := opts.Compare
	if compare == nil {
		compare = ByCount[D, C](true)
	}

	var out []Node[D, C]
	var walk func(n Node[D, C])
	walk = func(n Node[D, C]) {
		out = append(out, n)
		if opts.Stop != nil && opts.Stop(n) {
			return
		}
		children := n.Children()
		slices.SortStableFunc(children, compare)
		if opts.MaxChildren >= 0 && len(children) > opts.MaxChildren {
			children = children[:opts.MaxChildren]
		}
		for _, c := range children {
			walk(c)
		}
	}
	walk(start)
	return out, nil
}

// TopTreeSliceUpTo returns the nodes from the root down to the nodes where
// stop returns true, children ordered by compare.
func (t *Tree[D, C]) TopTreeSliceUpTo(compare Compare[D, C], stop func(Node[D, C]) bool) []Node[D, C] {
	out, _ := t.Slice(SliceOptions[D, C]{Compare: compare, Stop: stop, MaxChildren: NoLimit})
	return out
}

// SlicedTree returns the tree slice described by the locator dimensions
// maxChildren, orderBy and subTreeRootId. Parent links of the returned nodes
// lead back to the root even when the slice starts below it.
func (t *Tree[D, C]) SlicedTree(loc *locator.Locator) ([]Node[D, C], error) {
	opts, err := SliceOptionsFromLocator[D, C](loc)
	if err != nil {
		return nil, err
	}
	return t.Slice(opts)
}
