package nav

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// MaxResults caps the number of matches returned by Index.Search.
const MaxResults = 8

// Entry is a flattened navigable node.
type Entry struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Path  string   `json:"path"`
	Trail []string `json:"trail,omitempty"`
}

// SearchResult distinguishes the browse state (blank query) from a query
// that simply matched nothing.
type SearchResult struct {
	Query   string  `json:"query"`
	Browse  bool    `json:"browse"`
	Matches []Entry `json:"results"`
}

// BrowseGroup is one section of the default browse view.
type BrowseGroup struct {
	Label   string
	Entries []Entry
}

// Index is the flattened, pre-order search index over a Tree.
type Index struct {
	entries []Entry
	folded  []string
	browse  []BrowseGroup
}

// NewIndex flattens t in pre-order. Grouping nodes are skipped but their
// children are kept.
func NewIndex(t *Tree) *Index {
	ix := &Index{}
	fold := cases.Fold()
	var walk func(nodes []*Node, trail []string)
	walk = func(nodes []*Node, trail []string) {
		for _, n := range nodes {
			if !n.IsGroup() {
				ix.entries = append(ix.entries, Entry{
					ID:    n.ID,
					Label: n.Label,
					Path:  n.Path,
					Trail: append([]string(nil), trail...),
				})
				ix.folded = append(ix.folded, fold.String(n.Label))
			}
			walk(n.Children, append(trail[:len(trail):len(trail)], n.Label))
		}
	}
	walk(t.Roots(), nil)
	ix.browse = buildBrowse(t)
	return ix
}

// buildBrowse groups the first two levels below the roots into sections.
func buildBrowse(t *Tree) []BrowseGroup {
	var groups []BrowseGroup
	for _, root := range t.Roots() {
		loose := BrowseGroup{Label: root.Label}
		for _, section := range root.Children {
			if !section.IsGroup() {
				loose.Entries = append(loose.Entries, Entry{ID: section.ID, Label: section.Label, Path: section.Path})
				continue
			}
			g := BrowseGroup{Label: section.Label}
			for _, child := range section.Children {
				if child.IsGroup() {
					continue
				}
				g.Entries = append(g.Entries, Entry{ID: child.ID, Label: child.Label, Path: child.Path, Trail: []string{section.Label}})
			}
			if len(g.Entries) > 0 {
				groups = append(groups, g)
			}
		}
		if len(loose.Entries) > 0 {
			groups = append(groups, loose)
		}
	}
	return groups
}

// Entries returns every indexed entry in traversal order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, len(ix.entries))
	copy(out, ix.entries)
	return out
}

// Browse returns the default view shown for a blank query.
func (ix *Index) Browse() []BrowseGroup { return ix.browse }

// Search matches query as a case-insensitive substring of entry labels and
// returns at most MaxResults entries in traversal order.
func (ix *Index) Search(query string) SearchResult {
	q := strings.TrimSpace(query)
	if q == "" {
		return SearchResult{Query: q, Browse: true}
	}
	needle := cases.Fold().String(q)
	res := SearchResult{Query: q, Matches: []Entry{}}
	for i, label := range ix.folded {
		if !strings.Contains(label, needle) {
			continue
		}
		res.Matches = append(res.Matches, ix.entries[i])
		if len(res.Matches) == MaxResults {
			break
		}
	}
	return res
}

// HighlightSegment is a piece of a label, flagged when it matched the query.
type HighlightSegment struct {
	Text  string
	Match bool
}

// Highlight splits label around occurrences of term using the same case
// folding as Search. A match that covers part of a folded rune ("s" against
// "ß") highlights the whole rune.
func Highlight(label, term string) []HighlightSegment {
	if label == "" {
		return nil
	}
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(term))
	if needle == "" {
		return []HighlightSegment{{Text: label}}
	}

	// rune i of label starts at offsets[i] in label and bounds[i] in hay
	var b strings.Builder
	var offsets, bounds []int
	for off, r := range label {
		offsets = append(offsets, off)
		bounds = append(bounds, b.Len())
		b.WriteString(fold.String(string(r)))
	}
	offsets = append(offsets, len(label))
	bounds = append(bounds, b.Len())
	hay := b.String()

	var segments []HighlightSegment
	start, from := 0, 0
	for {
		j := strings.Index(hay[from:], needle)
		if j < 0 {
			break
		}
		lo, exact := slices.BinarySearch(bounds, from+j)
		if !exact {
			lo--
		}
		hi, _ := slices.BinarySearch(bounds, from+j+len(needle))
		if lo > start {
			segments = append(segments, HighlightSegment{Text: label[offsets[start]:offsets[lo]]})
		}
		segments = append(segments, HighlightSegment{Text: label[offsets[lo]:offsets[hi]], Match: true})
		start, from = hi, bounds[hi]
	}
	if offsets[start] < len(label) {
		segments = append(segments, HighlightSegment{Text: label[offsets[start]:]})
	}
	return segments
}
