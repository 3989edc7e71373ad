package nav

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// GroupPath marks a node that only groups children and has no page.
const GroupPath = "#"

// Node is one entry of the site navigation tree.
type Node struct {
	ID       string  `yaml:"id" json:"id"`
	Label    string  `yaml:"label" json:"label"`
	Path     string  `yaml:"path" json:"path"`
	Children []*Node `yaml:"children,omitempty" json:"children,omitempty"`
}

// IsGroup reports whether the node is a non-navigable grouping node.
func (n *Node) IsGroup() bool { return n != nil && n.Path == GroupPath }

// HasChildren reports whether the node can be expanded.
func (n *Node) HasChildren() bool { return n != nil && len(n.Children) > 0 }

// Tree is the immutable navigation forest. It is built once at startup and
// only traversed afterwards.
type Tree struct {
	roots  []*Node
	byID   map[string]*Node
	parent map[string]*Node
}

// TreeError lists every structural problem found while building a tree.
type TreeError struct {
	Problems []string
}

func (e *TreeError) Error() string {
	return fmt.Sprintf("nav: invalid tree: %s", strings.Join(e.Problems, "; "))
}

// NewTree validates roots and indexes them. Ids must be unique across the
// whole tree and every node needs a label and a path.
func NewTree(roots []*Node) (*Tree, error) {
	t := &Tree{
		roots:  roots,
		byID:   map[string]*Node{},
		parent: map[string]*Node{},
	}
	var problems []string
	var visit func(nodes []*Node, parent *Node)
	visit = func(nodes []*Node, parent *Node) {
		for i, n := range nodes {
			if n == nil {
				problems = append(problems, fmt.Sprintf("nil node at index %d", i))
				continue
			}
			id := strings.TrimSpace(n.ID)
			switch {
			case id == "":
				problems = append(problems, fmt.Sprintf("node %q has no id", n.Label))
			case t.byID[id] != nil:
				problems = append(problems, fmt.Sprintf("duplicate id %q", id))
			default:
				t.byID[id] = n
				if parent != nil {
					t.parent[id] = parent
				}
			}
			if strings.TrimSpace(n.Label) == "" {
				problems = append(problems, fmt.Sprintf("node %q has no label", id))
			}
			if n.Path != GroupPath && !strings.HasPrefix(n.Path, "/") {
				problems = append(problems, fmt.Sprintf("node %q has invalid path %q", id, n.Path))
			}
			visit(n.Children, n)
		}
	}
	visit(roots, nil)
	if len(roots) == 0 {
		problems = append(problems, "no root nodes")
	}
	if len(problems) > 0 {
		return nil, &TreeError{Problems: problems}
	}
	return t, nil
}

// LoadTree decodes a YAML sequence of root nodes and builds a Tree.
func LoadTree(r io.Reader) (*Tree, error) {
	var roots []*Node
	if err := yaml.NewDecoder(r).Decode(&roots); err != nil {
		return nil, fmt.Errorf("nav: decode tree: %w", err)
	}
	return NewTree(roots)
}

// Roots returns the top-level nodes in document order.
func (t *Tree) Roots() []*Node {
	if t == nil {
		return nil
	}
	return t.roots
}

// Node returns the node with the given id.
func (t *Tree) Node(id string) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.byID[id]
	return n, ok
}

// Parent returns the parent of the node with the given id.
func (t *Tree) Parent(id string) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := t.parent[id]
	return p, ok
}

// Walk visits every node depth-first in pre-order. Roots have depth 0.
func (t *Tree) Walk(fn func(n *Node, depth int)) {
	if t == nil {
		return
	}
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(t.roots, 0)
}

// Resolve returns the chain from a root down to the first node, in
// pre-order, whose path equals path. It returns nil when nothing matches.
func (t *Tree) Resolve(path string) []*Node {
	if t == nil || path == "" || path == GroupPath {
		return nil
	}
	var chain []*Node
	var search func(nodes []*Node, trail []*Node) bool
	search = func(nodes []*Node, trail []*Node) bool {
		for _, n := range nodes {
			next := append(trail[:len(trail):len(trail)], n)
			if n.Path == path {
				chain = next
				return true
			}
			if search(n.Children, next) {
				return true
			}
		}
		return false
	}
	search(t.roots, nil)
	return chain
}

// Ancestors returns the resolved chain for path without the node itself.
func (t *Tree) Ancestors(path string) []*Node {
	chain := t.Resolve(path)
	if len(chain) == 0 {
		return nil
	}
	return chain[:len(chain)-1]
}

// Paths lists every navigable path in pre-order.
func (t *Tree) Paths() []string {
	var out []string
	t.Walk(func(n *Node, _ int) {
		if !n.IsGroup() {
			out = append(out, n.Path)
		}
	})
	return out
}
