package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	csrfCookieName = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
	// CSRFFormField is the hidden input plain HTML forms submit the token in.
	CSRFFormField = "csrf_token"

	csrfCookieMaxAge = 24 * time.Hour
)

// CSRF guards state-changing requests with a double-submit token: the
// csrf_token cookie must match the session token, and so must the
// X-CSRF-Token header (htmx) or the csrf_token form field.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := GetSession(r)
		if s.CSRFToken == "" {
			s.CSRFToken = newCSRFToken()
			s.MarkDirty()
		}
		if cookieToken(r) != s.CSRFToken {
			setCSRFCookie(w, s.CSRFToken)
		}
		if !isSafeMethod(r.Method) && !csrfVerified(r, s.CSRFToken) {
			writeError(w, r, http.StatusForbidden, "invalid CSRF token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func csrfVerified(r *http.Request, token string) bool {
	submitted := r.Header.Get(csrfHeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(CSRFFormField)
	}
	return tokensEqual(submitted, token) && tokensEqual(cookieToken(r), token)
}

func cookieToken(r *http.Request) string {
	if c, err := r.Cookie(csrfCookieName); err == nil {
		return c.Value
	}
	return ""
}

// setCSRFCookie is readable by scripts so htmx can echo it in a header.
func setCSRFCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(csrfCookieMaxAge / time.Second),
		Secure:   sessionSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// CSRFToken returns the token templates embed in forms.
func CSRFToken(r *http.Request) string {
	return GetSession(r).CSRFToken
}

func tokensEqual(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	default:
		return false
	}
}
