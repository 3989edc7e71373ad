package middleware

import (
	"net/http"
	"strings"

	"northgate.capital/web/internal/httpx"
)

// writeError answers htmx and /api requests with the JSON envelope and plain
// page requests with text.
func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if IsHTMX(r.Context()) || strings.HasPrefix(r.URL.Path, "/api/") {
		httpx.WriteError(r.Context(), w, httpx.NewError(errorCode(code), msg, code))
		return
	}
	http.Error(w, msg, code)
}

func errorCode(status int) string {
	return strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "_")
}
