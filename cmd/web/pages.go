package main

import (
	"bytes"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"northgate.capital/web/internal/auth"
	"northgate.capital/web/internal/cms"
	handlersPkg "northgate.capital/web/internal/handlers"
	mw "northgate.capital/web/internal/middleware"
	"northgate.capital/web/internal/nav"
	"northgate.capital/web/internal/observability"
	"northgate.capital/web/internal/seo"
)

const errorCopy = "Something failed. Reload the page."

// newPageData fills the shared layout fields. Visiting a page force-expands
// its ancestors in the sidebar, and that change is persisted.
func newPageData(r *http.Request, title string) handlersPkg.PageData {
	lang := mw.Lang(r)
	path := r.URL.Path
	sb := nav.OpenSidebar(site.Tree, mw.Store(r))
	sb.Navigate(path)

	vm := handlersPkg.PageData{
		Title:       title,
		Lang:        lang,
		Path:        path,
		Nav:         nav.Build(site.Tree, path),
		Sidebar:     sb.Items(path),
		Breadcrumbs: nav.Breadcrumbs(site.Tree, path),
		CSRFToken:   mw.CSRFToken(r),
		Analytics:   analytics,
	}
	if u := mw.UserFromContext(r.Context()); u != nil {
		vm.Auth = handlersPkg.AuthView{SignedIn: true, Role: u.Role, PortalPath: auth.PortalPath(auth.Role(u.Role))}
	}

	brand := i18nOrDefault(lang, "brand.name", "Northgate Capital")
	vm.SEO.Title = seo.Title(title, brand)
	vm.SEO.Description = i18nOrDefault(lang, "brand.tagline", "Capital advisory for founders, sponsors and developers.")
	vm.SEO.Canonical = seo.Canonical(siteURL, path)
	vm.SEO.OG.URL = vm.SEO.Canonical
	vm.SEO.OG.SiteName = brand
	vm.SEO.OG.Type = "website"
	vm.SEO.OG.Title = vm.SEO.Title
	vm.SEO.OG.Description = vm.SEO.Description
	vm.SEO.Twitter.Card = "summary"
	if len(vm.Breadcrumbs) > 1 {
		vm.SEO.JSONLD = append(vm.SEO.JSONLD, seo.JSON(seo.BreadcrumbList(seo.BreadcrumbItems(siteURL, vm.Breadcrumbs))))
	}
	return vm
}

// HomeHandler renders the landing page.
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	brand := i18nOrDefault(lang, "brand.name", "Northgate Capital")
	vm := newPageData(r, brand)
	home := handlersPkg.BuildHomeData(site.Index)
	vm.Home = homeView{HomeData: home, Concierge: toolViewFor(conciergeTool, vm)}

	var areas []string
	for _, g := range home.Sections {
		areas = append(areas, g.Label)
	}
	vm.SEO.JSONLD = append(vm.SEO.JSONLD,
		seo.JSON(seo.FinancialService(brand, siteURL, areas)),
		seo.JSON(seo.WebSite(brand, siteURL, siteURL+"/search?q=")),
	)
	renderPage(w, r, "home", vm)
}

type homeView struct {
	handlersPkg.HomeData
	Concierge toolView
}

// contentPageView is the generic page: hero, optional tool, fixed sections.
type contentPageView struct {
	Entry    cms.Entry
	Steps    []cms.Step
	Sections []cms.Section
	Tool     *toolView
}

// ContentPageHandler serves every path without a dedicated route from the
// content map. A miss renders the not-found state with a 404.
func ContentPageHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		// collapse every leading slash so "//host/" cannot become a
		// protocol-relative Location
		target := localPath("/"+strings.Trim(path, "/"), "/")
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}
	entry, ok := site.Content.Lookup(path)
	if !ok {
		NotFoundHandler(w, r)
		return
	}
	vm := newPageData(r, entry.Title)
	vm.SEO.Description = entry.Subheadline
	vm.SEO.OG.Description = entry.Subheadline
	if len(entry.FAQ) > 0 {
		pairs := make([][2]string, 0, len(entry.FAQ))
		for _, f := range entry.FAQ {
			pairs = append(pairs, [2]string{f.Question, f.Answer})
		}
		vm.SEO.JSONLD = append(vm.SEO.JSONLD, seo.JSON(seo.FAQPage(pairs)))
	}
	page := contentPageView{
		Entry:    entry,
		Steps:    entry.Steps(),
		Sections: entry.Sections(),
	}
	if t, ok := toolForPage(path); ok {
		tv := toolViewFor(t, vm)
		page.Tool = &tv
	}
	vm.Page = page
	renderPage(w, r, "page", vm)
}

// NotFoundHandler renders the fixed not-found state. It is an expected
// outcome, so it is logged at debug only.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	observability.FromContext(r.Context()).Debug("no content for path", zap.String("path", observability.SanitizeRoute(r.URL.Path)))
	lang := mw.Lang(r)
	vm := newPageData(r, i18nOrDefault(lang, "notfound.title", "Page not found"))
	vm.SEO.Robots = "noindex"
	vm.SEO.JSONLD = nil
	renderPageStatus(w, r, "not_found", vm, http.StatusNotFound)
}

// renderErrorPage replaces the response with the generic failure screen. It
// runs outside the session middleware, so it only uses request-independent
// data, and it falls back to plain text when the template itself fails.
func renderErrorPage(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	vm := handlersPkg.PageData{
		Title:     i18nOrDefault(lang, "error.title", "Something failed"),
		Lang:      lang,
		Path:      r.URL.Path,
		Analytics: analytics,
	}
	if site != nil {
		vm.Nav = nav.Build(site.Tree, "")
	}
	vm.SEO.Title = seo.Title(vm.Title, i18nOrDefault(lang, "brand.name", "Northgate Capital"))
	vm.SEO.Robots = "noindex"

	var buf bytes.Buffer
	set, err := templates()
	if err == nil {
		if t, ok := set.pages["error"]; ok {
			err = t.ExecuteTemplate(&buf, "base", vm)
		}
	}
	if err != nil || buf.Len() == 0 {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(errorCopy))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = buf.WriteTo(w)
}
