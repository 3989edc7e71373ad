// Package sitedata loads the navigation tree and the content map. Both are
// embedded; a file path overrides the embedded copy.
package sitedata

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"

	"northgate.capital/web/internal/cms"
	"northgate.capital/web/internal/nav"
)

//go:embed navigation.yaml pages.yaml
var files embed.FS

// HardRoutes lists every parameterless GET route served by a dedicated
// handler rather than the content map. The web router test keeps it in step
// with the registered routes.
var HardRoutes = []string{
	"/",
	"/healthz",
	"/search",
	"/search/results",
	"/login",
	"/portal/client",
	"/portal/investor",
	"/testimonials",
	"/media-studio",
	"/api/search",
}

// Tables is everything derived from the two data files.
type Tables struct {
	Tree    *nav.Tree
	Content *cms.Map
	Index   *nav.Index
}

// Load reads the tables. Empty paths use the embedded copies.
func Load(navFile, contentFile string) (*Tables, error) {
	navSrc, err := open(navFile, "navigation.yaml")
	if err != nil {
		return nil, err
	}
	tree, err := nav.LoadTree(navSrc)
	if err != nil {
		return nil, fmt.Errorf("navigation: %w", err)
	}
	contentSrc, err := open(contentFile, "pages.yaml")
	if err != nil {
		return nil, err
	}
	content, err := cms.LoadMap(contentSrc)
	if err != nil {
		return nil, fmt.Errorf("content: %w", err)
	}
	return &Tables{Tree: tree, Content: content, Index: nav.NewIndex(tree)}, nil
}

// MustLoadEmbedded loads the embedded tables and panics on error. The
// embedded files are checked by tests.
func MustLoadEmbedded() *Tables {
	t, err := Load("", "")
	if err != nil {
		panic(err)
	}
	return t
}

// Validate cross-checks the tree against the content map and HardRoutes.
func (t *Tables) Validate() cms.Report {
	return cms.Validate(t.Tree, t.Content, HardRoutes)
}

func open(path, embedded string) (io.Reader, error) {
	if path == "" {
		b, err := files.ReadFile(embedded)
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", embedded, err)
		}
		return bytes.NewReader(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return bytes.NewReader(b), nil
}
