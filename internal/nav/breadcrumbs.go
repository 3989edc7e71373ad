package nav

// HomePath is the site root. It is never breadcrumbed.
const HomePath = "/"

// HomeLabel names the synthetic first crumb.
const HomeLabel = "Home"

// Crumb represents a breadcrumb entry. Grouping nodes keep the "#" path and
// render as plain text.
type Crumb struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Active bool   `json:"active,omitempty"`
}

// Linkable reports whether the crumb points at a page.
func (c Crumb) Linkable() bool { return c.Path != GroupPath && !c.Active }

// Breadcrumbs resolves the ancestor chain of path. The first node in
// pre-order wins when a path appears more than once. A Home crumb is
// prepended unless the chain already starts at the root. It returns nil when
// path is the root or is not in the tree.
func Breadcrumbs(t *Tree, path string) []Crumb {
	if path == HomePath {
		return nil
	}
	chain := t.Resolve(path)
	if len(chain) == 0 {
		return nil
	}
	crumbs := make([]Crumb, 0, len(chain)+1)
	if chain[0].Path != HomePath {
		crumbs = append(crumbs, Crumb{Label: HomeLabel, Path: HomePath})
	}
	for i, n := range chain {
		crumbs = append(crumbs, Crumb{
			Label:  n.Label,
			Path:   n.Path,
			Active: i == len(chain)-1,
		})
	}
	return crumbs
}
