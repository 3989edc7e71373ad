package handlers

import (
	"northgate.capital/web/internal/nav"
)

// PageData is a generic view model for simple pages using the shared layout.
type PageData struct {
	Title     string
	Lang      string
	SEO       SEOData
	Analytics Analytics

	Path        string
	Nav         []nav.RenderedItem
	Sidebar     []nav.SidebarItem
	Breadcrumbs []nav.Crumb
	Auth        AuthView
	CSRFToken   string

	// Optional per-page view model payloads
	Home         any
	Page         any
	Search       any
	Login        any
	Portal       any
	Testimonials any
	MediaStudio  any
}

// AuthView is the signed-in state shown in the header.
type AuthView struct {
	SignedIn   bool
	Role       string
	PortalPath string
}

// SEOData is a lightweight copy to avoid importing the seo package here.
type SEOData struct {
	Title       string
	Description string
	Canonical   string
	Robots      string
	OG          struct {
		Title       string
		Description string
		Image       string
		Type        string
		URL         string
		SiteName    string
	}
	Twitter struct {
		Card  string
		Site  string
		Image string
	}
	JSONLD []string
}
