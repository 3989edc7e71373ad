package main

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	mw "northgate.capital/web/internal/middleware"
	"northgate.capital/web/internal/nav"
)

// sidebarView is the data the "sidebar" partial expects.
type sidebarView struct {
	Items     []nav.SidebarItem
	CSRFToken string
	Lang      string
}

// NavToggleHandler flips one sidebar node. htmx gets the re-rendered sidebar;
// plain form posts are sent back to the page they came from.
func NavToggleHandler(w http.ResponseWriter, r *http.Request) {
	sb := nav.OpenSidebar(site.Tree, mw.Store(r))
	if _, err := sb.Toggle(chi.URLParam(r, "nodeID")); err != nil {
		switch {
		case errors.Is(err, nav.ErrUnknownNode):
			http.Error(w, "unknown node", http.StatusNotFound)
		case errors.Is(err, nav.ErrLeafNode):
			http.Error(w, "node has no children", http.StatusBadRequest)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	if !mw.IsHTMX(r.Context()) {
		http.Redirect(w, r, backTo(r), http.StatusSeeOther)
		return
	}
	renderTemplate(w, r, "sidebar", sidebarView{
		Items:     sb.Items(mw.CurrentPath(r)),
		CSRFToken: mw.CSRFToken(r),
		Lang:      mw.Lang(r),
	})
}

// backTo returns the same-origin Referer path, or "/".
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || (ref.Host != "" && ref.Host != r.Host) {
		return "/"
	}
	target := ref.Path
	if ref.RawQuery != "" {
		target += "?" + ref.RawQuery
	}
	return localPath(target, "/")
}

// localPath returns p when it is a path on this site, else fallback.
func localPath(p, fallback string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return fallback
	}
	return p
}
