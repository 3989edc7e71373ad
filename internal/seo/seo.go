// Package seo builds canonical URLs and schema.org payloads for the layout.
package seo

import (
	"strings"

	"northgate.capital/web/internal/nav"
)

// Canonical joins the site base URL and a request path.
func Canonical(baseURL, path string) string {
	base := strings.TrimRight(baseURL, "/")
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}

// Title appends the brand to a page title. The home page uses the brand alone.
func Title(page, brand string) string {
	page = strings.TrimSpace(page)
	if page == "" || page == brand {
		return brand
	}
	return page + " | " + brand
}

// BreadcrumbItems converts navigation crumbs to schema.org items. Grouping
// crumbs have no URL and are skipped.
func BreadcrumbItems(baseURL string, crumbs []nav.Crumb) []BreadcrumbItem {
	items := make([]BreadcrumbItem, 0, len(crumbs))
	for _, c := range crumbs {
		if c.Path == nav.GroupPath {
			continue
		}
		items = append(items, BreadcrumbItem{Name: c.Label, Item: Canonical(baseURL, c.Path)})
	}
	return items
}
