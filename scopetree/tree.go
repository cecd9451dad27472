package scopetree

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Scope is one level of a path, such as a package, a class or a test.
type Scope struct {
	Name string
	Type string
}

// Counters is combined bottom-up across a tree. CombinedWith must be
// commutative and associative, and must not modify its receiver or argument.
type Counters[C any] interface {
	CombinedWith(other C) C
	Count() int
}

// Leaf describes raw data found at a path below the root.
type Leaf[D any] struct {
	Path []Scope
	Data []D
}

// PathID returns the node id for a path of scopes. Names are path-escaped and
// joined with '/', so ids of different paths never collide.
func PathID(path []Scope) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = url.PathEscape(s.Name)
	}
	return strings.Join(parts, "/")
}

type node[D any, C Counters[C]] struct {
	id       string
	scope    Scope
	parent   int
	children []int
	depth    int
	leaf     bool
	data     []D
	counters C
}

// Tree is a scope hierarchy stored as an arena of nodes. A node's parent
// always has a lower index than the node itself.
type Tree[D any, C Counters[C]] struct {
	nodes []*node[D, C]
	index map[string]int
	count func(data []D) C
}

// Build creates a tree rooted at root. count computes the counters of a
// leaf from its data; it is also called with nil for nodes that have no
// leaves beneath them.
func Build[D any, C Counters[C]](root Scope, leaves []Leaf[D], count func(data []D) C) (*Tree[D, C], error) {
	if root.Name == "" {
		return nil, fmt.Errorf("%w: root scope has no name", ErrInvalidPath)
	}
	t := &Tree[D, C]{
		index: map[string]int{},
		count: count,
	}
	t.nodes = append(t.nodes, &node[D, C]{
		id:     PathID([]Scope{root}),
		scope:  root,
		parent: -1,
	})
	t.index[t.nodes[0].id] = 0

	for _, leaf := range leaves {
		if err := t.add(leaf); err != nil {
			return nil, err
		}
	}
	for _, n := range t.nodes {
		if n.leaf {
			n.counters = count(n.data)
		}
	}
	t.rollup()
	return t, nil
}

func (t *Tree[D, C]) add(leaf Leaf[D]) error {
	if len(leaf.Path) == 0 {
		return fmt.Errorf("%w: leaf path is empty", ErrInvalidPath)
	}

	path := []Scope{t.nodes[0].scope}
	current := 0
	for depth, s := range leaf.Path {
		if s.Name == "" {
			return fmt.Errorf("%w: empty scope name at depth %d", ErrInvalidPath, depth+1)
		}
		path = append(path, s)
		if t.nodes[current].leaf {
			return fmt.Errorf("%w: %s", ErrMixedNode, t.nodes[current].id)
		}
		current = t.child(current, PathID(path), s)
	}

	n := t.nodes[current]
	if len(n.children) > 0 {
		return fmt.Errorf("%w: %s", ErrMixedNode, n.id)
	}
	n.leaf = true
	n.data = append(n.data, leaf.Data...)
	return nil
}

// child returns the index of the node with the given id, creating it under
// parent if needed.
func (t *Tree[D, C]) child(parent int, id string, s Scope) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	i := len(t.nodes)
	t.nodes = append(t.nodes, &node[D, C]{
		id:     id,
		scope:  s,
		parent: parent,
		depth:  t.nodes[parent].depth + 1,
	})
	t.nodes[parent].children = append(t.nodes[parent].children, i)
	t.index[id] = i
	return i
}

// rollup recomputes the counters of every intermediate node from its children.
func (t *Tree[D, C]) rollup() {
	for i := len(t.nodes) - 1; i >= 0; i-- {
		n := t.nodes[i]
		if n.leaf {
			continue
		}
		if len(n.children) == 0 {
			n.counters = t.count(nil)
			continue
		}
		combined := t.nodes[n.children[0]].counters
		for _, c := range n.children[1:] {
			combined = combined.CombinedWith(t.nodes[c].counters)
		}
		n.counters = combined
	}
}

// Merge adds other into t. Nodes with equal ids are unified: leaf data is
// appended and counters are combined. Nodes present only in other are
// attached under their parent. t is left unchanged when an error is returned.
func (t *Tree[D, C]) Merge(other *Tree[D, C]) error {
	if other == nil {
		return nil
	}
	if other.nodes[0].id != t.nodes[0].id {
		return fmt.Errorf("%w: %s and %s", ErrRootMismatch, t.nodes[0].id, other.nodes[0].id)
	}

	for _, on := range other.nodes[1:] {
		i, ok := t.index[on.id]
		if !ok {
			continue
		}
		n := t.nodes[i]
		if n.leaf != on.leaf {
			return fmt.Errorf("%w: %s", ErrMixedNode, on.id)
		}
	}

	for _, on := range other.nodes[1:] {
		if i, ok := t.index[on.id]; ok {
			n := t.nodes[i]
			if n.leaf {
				n.data = append(n.data, on.data...)
				n.counters = n.counters.CombinedWith(on.counters)
			}
			continue
		}
		parent := t.index[other.nodes[on.parent].id]
		i := t.child(parent, on.id, on.scope)
		n := t.nodes[i]
		n.leaf = on.leaf
		n.data = slices.Clone(on.data)
		n.counters = on.counters
	}
	t.rollup()
	return nil
}

// Root returns the root node.
func (t *Tree[D, C]) Root() Node[D, C] {
	return Node[D, C]{tree: t, i: 0}
}

// Node returns the node with the given id.
func (t *Tree[D, C]) Node(id string) (Node[D, C], bool) {
	i, ok := t.index[id]
	if !ok {
		return Node[D, C]{}, false
	}
	return Node[D, C]{tree: t, i: i}, true
}

// Len returns the number of nodes, the root included.
func (t *Tree[D, C]) Len() int {
	return len(t.nodes)
}

// Nodes returns every node, each one after its parent.
func (t *Tree[D, C]) Nodes() []Node[D, C] {
	out := make([]Node[D, C], len(t.nodes))
	for i := range t.nodes {
		out[i] = Node[D, C]{tree: t, i: i}
	}
	return out
}

// Node is a handle to a tree node. Handles stay valid when the tree is
// merged with another one.
type Node[D any, C Counters[C]] struct {
	tree *Tree[D, C]
	i    int
}

func (n Node[D, C]) get() *node[D, C] {
	return n.tree.nodes[n.i]
}

// Valid reports whether the handle refers to a node.
func (n Node[D, C]) Valid() bool {
	return n.tree != nil
}

func (n Node[D, C]) ID() string {
	return n.get().id
}

func (n Node[D, C]) Scope() Scope {
	return n.get().scope
}

// Counters returns the combination of every leaf counter beneath the node.
func (n Node[D, C]) Counters() C {
	return n.get().counters
}

// Parent returns the parent node; the root has none.
func (n Node[D, C]) Parent() (Node[D, C], bool) {
	p := n.get().parent
	if p < 0 {
		return Node[D, C]{}, false
	}
	return Node[D, C]{tree: n.tree, i: p}, true
}

// Children returns the children in insertion order.
func (n Node[D, C]) Children() []Node[D, C] {
	children := n.get().children
	out := make([]Node[D, C], len(children))
	for k, c := range children {
		out[k] = Node[D, C]{tree: n.tree, i: c}
	}
	return out
}

// Data returns the raw data of a leaf node.
func (n Node[D, C]) Data() []D {
	return n.get().data
}

// Depth returns the distance from the root.
func (n Node[D, C]) Depth() int {
	return n.get().depth
}

func (n Node[D, C]) IsLeaf() bool {
	return n.get().leaf
}

// Path returns the scopes from the root down to the node.
func (n Node[D, C]) Path() []Scope {
	path := make([]Scope, n.Depth()+1)
	for cur, ok := n, true; ok; cur, ok = cur.Parent() {
		path[cur.Depth()] = cur.Scope()
	}
	return path
}
