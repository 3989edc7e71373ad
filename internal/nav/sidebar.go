package nav

import (
	"encoding/json"
	"errors"

	"northgate.capital/web/internal/session"
)

var (
	// ErrUnknownNode is returned when toggling an id that is not in the tree.
	ErrUnknownNode = errors.New("nav: unknown node")
	// ErrLeafNode is returned when toggling a node without children.
	ErrLeafNode = errors.New("nav: node has no children")
)

// Sidebar holds the set of expanded node ids for one visitor. Every change
// is written back to the store before the method returns.
type Sidebar struct {
	tree     *Tree
	store    session.Store
	expanded map[string]struct{}
}

// OpenSidebar rehydrates the expanded set from store. When nothing usable is
// stored the root nodes start expanded.
func OpenSidebar(t *Tree, store session.Store) *Sidebar {
	s := &Sidebar{tree: t, store: store, expanded: map[string]struct{}{}}
	if ids, ok := s.load(); ok {
		for _, id := range ids {
			if _, known := t.Node(id); known {
				s.expanded[id] = struct{}{}
			}
		}
		return s
	}
	for _, root := range t.Roots() {
		s.expanded[root.ID] = struct{}{}
	}
	return s
}

func (s *Sidebar) load() ([]string, bool) {
	if s.store == nil {
		return nil, false
	}
	raw, ok := s.store.Get(session.KeyExpandedNodes)
	if !ok || raw == "" {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (s *Sidebar) persist() {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(s.Expanded())
	if err != nil {
		return
	}
	s.store.Set(session.KeyExpandedNodes, string(raw))
}

// IsExpanded reports whether id is expanded.
func (s *Sidebar) IsExpanded(id string) bool {
	_, ok := s.expanded[id]
	return ok
}

// Expanded lists the expanded ids in tree order.
func (s *Sidebar) Expanded() []string {
	out := make([]string, 0, len(s.expanded))
	s.tree.Walk(func(n *Node, _ int) {
		if _, ok := s.expanded[n.ID]; ok {
			out = append(out, n.ID)
		}
	})
	return out
}

// Toggle flips the expansion of a parent node and returns its new state.
// Leaves never change state; callers navigate to them instead.
func (s *Sidebar) Toggle(id string) (bool, error) {
	n, ok := s.tree.Node(id)
	if !ok {
		return false, ErrUnknownNode
	}
	if !n.HasChildren() {
		return false, ErrLeafNode
	}
	open := !s.IsExpanded(id)
	if open {
		s.expanded[id] = struct{}{}
	} else {
		delete(s.expanded, id)
	}
	s.persist()
	return open, nil
}

// Navigate force-expands every ancestor of path. It only adds ids, so nodes
// the visitor opened elsewhere stay open. It reports whether the set changed.
func (s *Sidebar) Navigate(path string) bool {
	changed := false
	for _, n := range s.tree.Ancestors(path) {
		if !s.IsExpanded(n.ID) {
			s.expanded[n.ID] = struct{}{}
			changed = true
		}
	}
	if changed {
		s.persist()
	}
	return changed
}

// Items builds the sidebar view for currentPath with the current state.
func (s *Sidebar) Items(currentPath string) []SidebarItem {
	return BuildSidebar(s.tree, currentPath, s.IsExpanded)
}

// SidebarItem is the template view of one node in the sidebar and mobile menu.
type SidebarItem struct {
	ID          string
	Label       string
	Href        string
	Depth       int
	Group       bool
	HasChildren bool
	Expanded    bool
	Active      bool
	InTrail     bool
	Children    []SidebarItem
}

// BuildSidebar renders t for currentPath. The active node is the first
// pre-order match, and its ancestors are flagged InTrail.
func BuildSidebar(t *Tree, currentPath string, expanded func(id string) bool) []SidebarItem {
	trail := map[string]bool{}
	activeID := ""
	if chain := t.Resolve(currentPath); len(chain) > 0 {
		activeID = chain[len(chain)-1].ID
		for _, n := range chain[:len(chain)-1] {
			trail[n.ID] = true
		}
	}
	var build func(nodes []*Node, depth int) []SidebarItem
	build = func(nodes []*Node, depth int) []SidebarItem {
		if len(nodes) == 0 {
			return nil
		}
		items := make([]SidebarItem, 0, len(nodes))
		for _, n := range nodes {
			it := SidebarItem{
				ID:          n.ID,
				Label:       n.Label,
				Depth:       depth,
				Group:       n.IsGroup(),
				HasChildren: n.HasChildren(),
				Active:      n.ID == activeID,
				InTrail:     trail[n.ID],
			}
			if !it.Group {
				it.Href = n.Path
			}
			if it.HasChildren {
				it.Expanded = expanded != nil && expanded(n.ID)
				it.Children = build(n.Children, depth+1)
			}
			items = append(items, it)
		}
		return items
	}
	return build(t.Roots(), 0)
}
