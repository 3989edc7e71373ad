package main

import (
	"net/http"
	"net/url"

	"northgate.capital/web/internal/httpx"
	mw "northgate.capital/web/internal/middleware"
	"northgate.capital/web/internal/nav"
)

// searchView is shared by the search page and its results fragment.
type searchView struct {
	Lang   string
	Result nav.SearchResult
	Browse []nav.BrowseGroup
}

func buildSearchView(r *http.Request) searchView {
	res := site.Index.Search(r.URL.Query().Get("q"))
	v := searchView{Lang: mw.Lang(r), Result: res}
	if res.Browse {
		v.Browse = site.Index.Browse()
	}
	return v
}

// SearchHandler renders the search page. A blank query shows the browse view.
func SearchHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	vm := newPageData(r, i18nOrDefault(lang, "search.title", "Search"))
	vm.SEO.Robots = "noindex,follow"
	vm.Search = buildSearchView(r)
	renderPage(w, r, "search", vm)
}

// SearchResultsFrag renders the live results list and pushes the query into
// the address bar.
func SearchResultsFrag(w http.ResponseWriter, r *http.Request) {
	view := buildSearchView(r)
	push := "/search"
	if view.Result.Query != "" {
		push += "?q=" + url.QueryEscape(view.Result.Query)
	}
	w.Header().Set("HX-Push-Url", push)
	renderTemplate(w, r, "frag_search_results", view)
}

// SearchAPIHandler returns the raw search result as JSON.
func SearchAPIHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, site.Index.Search(r.URL.Query().Get("q")))
}
