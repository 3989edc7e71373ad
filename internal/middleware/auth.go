package middleware

import (
	"net/http"
	"net/url"

	"northgate.capital/web/internal/auth"
)

// Auth hydrates the request user from the mock sign-in stored in the session.
func Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := auth.Current(GetSession(r)); ok {
			r = r.WithContext(WithUser(r.Context(), &User{ID: id.Token, Role: string(id.Role)}))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole sends visitors without the given role to loginPath. htmx
// requests get an HX-Redirect instead of a 303.
func RequireRole(role auth.Role, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := UserFromContext(r.Context())
			if u != nil && u.Role == string(role) {
				next.ServeHTTP(w, r)
				return
			}
			target := loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			if IsHTMX(r.Context()) {
				w.Header().Set("HX-Redirect", target)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}
