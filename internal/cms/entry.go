// Package cms holds the immutable content map that feeds the generic page
// renderer.
package cms

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is the content of one generic page. Every field is populated.
type Entry struct {
	Title        string    `yaml:"title" json:"title"`
	Subheadline  string    `yaml:"subheadline" json:"subheadline"`
	Overview     []string  `yaml:"overview" json:"overview"`
	Deliverables []string  `yaml:"deliverables" json:"deliverables"`
	Methodology  []string  `yaml:"methodology" json:"methodology"`
	WhoItsFor    []string  `yaml:"who_its_for" json:"whoItsFor"`
	Outcomes     []string  `yaml:"outcomes" json:"outcomes"`
	CaseStudy    CaseStudy `yaml:"case_study" json:"caseStudy"`
	FAQ          []FAQ     `yaml:"faq" json:"faq"`
}

// CaseStudy is the single featured engagement on a page.
type CaseStudy struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// FAQ is one question and answer pair.
type FAQ struct {
	Question string `yaml:"q" json:"q"`
	Answer   string `yaml:"a" json:"a"`
}

// Step is a methodology line split into its name and description.
type Step struct {
	Name        string
	Description string
}

// Steps splits each methodology line on its first colon. A line without a
// colon becomes a step with only a name.
func (e Entry) Steps() []Step {
	steps := make([]Step, 0, len(e.Methodology))
	for _, line := range e.Methodology {
		name, desc, found := strings.Cut(line, ":")
		if !found {
			steps = append(steps, Step{Name: strings.TrimSpace(line)})
			continue
		}
		steps = append(steps, Step{Name: strings.TrimSpace(name), Description: strings.TrimSpace(desc)})
	}
	return steps
}

// Section is an anchor in the on-page table of contents.
type Section struct {
	ID    string
	Label string
}

// Sections lists the fixed page sections in render order.
func (e Entry) Sections() []Section {
	return []Section{
		{ID: "overview", Label: "Overview"},
		{ID: "deliverables", Label: "Deliverables"},
		{ID: "methodology", Label: "Methodology"},
		{ID: "segments", Label: "Who it's for"},
		{ID: "outcomes", Label: "Outcomes"},
		{ID: "case-study", Label: "Case study"},
		{ID: "faq", Label: "FAQ"},
	}
}

func (e Entry) clone() Entry {
	out := e
	out.Overview = cloneStrings(e.Overview)
	out.Deliverables = cloneStrings(e.Deliverables)
	out.Methodology = cloneStrings(e.Methodology)
	out.WhoItsFor = cloneStrings(e.WhoItsFor)
	out.Outcomes = cloneStrings(e.Outcomes)
	out.FAQ = append([]FAQ(nil), e.FAQ...)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// Map is the immutable path to Entry table.
type Map struct {
	entries map[string]Entry
}

// IncompleteError lists every missing field found while loading a Map, as
// "path.field" items.
type IncompleteError struct {
	Fields []string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("cms: incomplete content entries [%s]", strings.Join(e.Fields, ", "))
}

// NewMap validates entries and builds a Map. Any missing field fails the
// whole map.
func NewMap(entries map[string]Entry) (*Map, error) {
	var missing []string
	out := make(map[string]Entry, len(entries))
	for path, e := range entries {
		if !strings.HasPrefix(path, "/") {
			missing = append(missing, path+".path")
			continue
		}
		missing = append(missing, missingFields(path, e)...)
		out[path] = e.clone()
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &IncompleteError{Fields: missing}
	}
	return &Map{entries: out}, nil
}

// LoadMap decodes a YAML mapping of path to entry.
func LoadMap(r io.Reader) (*Map, error) {
	var raw map[string]Entry
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("cms: decode content map: %w", err)
	}
	return NewMap(raw)
}

func missingFields(path string, e Entry) []string {
	var out []string
	check := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, path+"."+field)
		}
	}
	checkList := func(field string, vs []string) {
		if len(vs) == 0 {
			out = append(out, path+"."+field)
			return
		}
		for i, v := range vs {
			check(fmt.Sprintf("%s[%d]", field, i), v)
		}
	}
	check("title", e.Title)
	check("subheadline", e.Subheadline)
	checkList("overview", e.Overview)
	checkList("deliverables", e.Deliverables)
	checkList("methodology", e.Methodology)
	checkList("who_its_for", e.WhoItsFor)
	checkList("outcomes", e.Outcomes)
	check("case_study.title", e.CaseStudy.Title)
	check("case_study.description", e.CaseStudy.Description)
	if len(e.FAQ) == 0 {
		out = append(out, path+".faq")
	}
	for i, f := range e.FAQ {
		check(fmt.Sprintf("faq[%d].q", i), f.Question)
		check(fmt.Sprintf("faq[%d].a", i), f.Answer)
	}
	return out
}

// Lookup returns a copy of the entry stored under the exact path.
func (m *Map) Lookup(path string) (Entry, bool) {
	if m == nil {
		return Entry{}, false
	}
	e, ok := m.entries[path]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Paths lists every key in lexical order.
func (m *Map) Paths() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.entries))
	for p := range m.entries {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
