package cms

import (
	"fmt"
	"strings"

	"northgate.capital/web/internal/nav"
)

// Report is the outcome of checking the navigation tree against the content
// map.
type Report struct {
	// MissingContent lists navigable paths with neither an entry nor a
	// dedicated route. Visitors following these links land on "not found".
	MissingContent []string
	// Unlinked lists entries no navigation node points at. They stay
	// reachable by URL.
	Unlinked []string
}

// OK reports whether every navigable path resolves to something.
func (r Report) OK() bool { return len(r.MissingContent) == 0 }

// Err returns an error describing MissingContent, or nil.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("cms: navigation paths without content: %s", strings.Join(r.MissingContent, ", "))
}

// Validate cross-checks tree and content. routes lists paths served by
// dedicated handlers, which need no entry.
func Validate(tree *nav.Tree, content *Map, routes []string) Report {
	served := map[string]bool{}
	for _, r := range routes {
		served[r] = true
	}
	linked := map[string]bool{}
	var rep Report
	for _, path := range tree.Paths() {
		if linked[path] {
			continue
		}
		linked[path] = true
		if served[path] {
			continue
		}
		if _, ok := content.Lookup(path); !ok {
			rep.MissingContent = append(rep.MissingContent, path)
		}
	}
	for _, path := range content.Paths() {
		if !linked[path] {
			rep.Unlinked = append(rep.Unlinked, path)
		}
	}
	return rep
}
