// Package nav holds the site navigation tree and everything derived from
// it: breadcrumbs, the search index, the top bar and the sidebar state.
package nav

import "strings"

// RenderedItem is a view model for the top bar.
type RenderedItem struct {
	Href   string
	Label  string
	Active bool
}

// Build renders the top bar from the children of the root nodes. Grouping
// nodes link to their first navigable descendant.
func Build(t *Tree, currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	inChain := map[string]bool{}
	for _, n := range t.Resolve(currentPath) {
		inChain[n.ID] = true
	}
	var items []RenderedItem
	for _, root := range t.Roots() {
		for _, n := range root.Children {
			href := n.Path
			if n.IsGroup() {
				href = firstNavigable(n)
			}
			if href == "" {
				continue
			}
			items = append(items, RenderedItem{
				Href:   href,
				Label:  n.Label,
				Active: inChain[n.ID] || (!n.IsGroup() && isActive(n.Path, currentPath)),
			})
		}
	}
	return items
}

func firstNavigable(n *Node) string {
	for _, c := range n.Children {
		if !c.IsGroup() {
			return c.Path
		}
		if p := firstNavigable(c); p != "" {
			return p
		}
	}
	return ""
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	// match exact or prefix boundary: "/valuation" or "/valuation/..."
	if currentPath == itemPath {
		return true
	}
	return strings.HasPrefix(currentPath, itemPath+"/")
}
