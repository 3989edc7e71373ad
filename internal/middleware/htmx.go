package middleware

import (
	"context"
	"net/http"
	"net/url"
)

// HTMX marks requests coming from htmx so handlers/middlewares can adapt
// responses, and records the page the request was issued from.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		ctx := WithHTMX(r.Context(), is)
		if is {
			if u, err := url.Parse(r.Header.Get("HX-Current-URL")); err == nil && u.Path != "" {
				ctx = context.WithValue(ctx, ctxKeyCurrentURL, u.Path)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentPath returns the path of the page an htmx request came from, or the
// request path itself for full page loads.
func CurrentPath(r *http.Request) string {
	if p, ok := r.Context().Value(ctxKeyCurrentURL).(string); ok && p != "" {
		return p
	}
	return r.URL.Path
}
