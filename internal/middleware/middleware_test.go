package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"northgate.capital/web/internal/auth"
	"northgate.capital/web/internal/session"
)

func cookiesFrom(rec *httptest.ResponseRecorder) map[string]string {
	out := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c.Value
	}
	return out
}

func TestSessionValuesRoundTrip(t *testing.T) {
	h := Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := Store(r)
		if r.URL.Path == "/set" {
			store.Set(session.KeyExpandedNodes, `["home"]`)
		}
		v, _ := store.Get(session.KeyExpandedNodes)
		_, _ = io.WriteString(w, v)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/set", nil))
	cookie := cookiesFrom(rec)[SessionCookieName]
	require.NotEmpty(t, cookie)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	require.Equal(t, `["home"]`, rec2.Body.String())
	require.Empty(t, cookiesFrom(rec2)[SessionCookieName], "unchanged session must not be rewritten")
}

func TestSessionRejectsTamperedCookie(t *testing.T) {
	h := Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := Store(r).Get(session.KeyAuthRole)
		if ok {
			_, _ = io.WriteString(w, "trusted")
			return
		}
		_, _ = io.WriteString(w, "fresh")
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "eyJ2Ijp7ImF1dGgucm9sZSI6ImludmVzdG9yIn19.bm9wZQ"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "fresh", rec.Body.String())
}

func TestSessionDataClear(t *testing.T) {
	s := &SessionData{}
	s.Set("a", "1")
	s.Set("b", "2")
	s.dirty = false

	s.Set("a", "1")
	require.False(t, s.dirty, "setting the same value is not a change")

	s.Clear("a")
	require.True(t, s.dirty)
	_, ok := s.Get("a")
	require.False(t, ok)

	s.Clear()
	_, ok = s.Get("b")
	require.False(t, ok)
}

func TestCSRFAcceptsFormField(t *testing.T) {
	h := Session(CSRF(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, CSRFToken(r))
			return
		}
		_, _ = io.WriteString(w, "ok")
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	token := rec.Body.String()
	cookies := cookiesFrom(rec)
	require.Equal(t, token, cookies[csrfCookieName])

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: cookies[csrfCookieName]})
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookies[SessionCookieName]})
		out := httptest.NewRecorder()
		h.ServeHTTP(out, req)
		return out
	}

	require.Equal(t, http.StatusForbidden, post(url.Values{}).Code)
	require.Equal(t, http.StatusForbidden, post(url.Values{CSRFFormField: {"wrong"}}).Code)
	ok := post(url.Values{CSRFFormField: {token}})
	require.Equal(t, http.StatusOK, ok.Code)
	require.Equal(t, "ok", ok.Body.String())
}

func TestCSRFRejectionIsJSONForHTMX(t *testing.T) {
	h := HTMX(Session(CSRF(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))))
	req := httptest.NewRequest(http.MethodPost, "/tools/valuation", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	require.Contains(t, rec.Body.String(), `"error":"forbidden"`)
}

func TestRequireRole(t *testing.T) {
	guarded := HTMX(Session(Auth(RequireRole(auth.RoleInvestor, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "portal")
	})))))

	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/portal/investor", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login?next=%2Fportal%2Finvestor", rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/portal/investor", nil)
	req.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "/login?next=%2Fportal%2Finvestor", rec.Header().Get("HX-Redirect"))

	// sign in through a real session cookie
	login := Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := auth.Login(Store(r), "investor@northgate.capital", "allocator-demo")
		require.NoError(t, err)
	}))
	loginRec := httptest.NewRecorder()
	login.ServeHTTP(loginRec, httptest.NewRequest(http.MethodPost, "/login", nil))
	sess := cookiesFrom(loginRec)[SessionCookieName]
	require.NotEmpty(t, sess)

	req = httptest.NewRequest(http.MethodGet, "/portal/investor", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess})
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "portal", rec.Body.String())
}

func TestCurrentPathPrefersHXCurrentURL(t *testing.T) {
	var got string
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = CurrentPath(r)
	}))
	req := httptest.NewRequest(http.MethodPost, "/nav/toggle/advisory", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Current-URL", "https://northgate.capital/valuation?x=1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, "/valuation", got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/about", nil))
	require.Equal(t, "/about", got)
}
