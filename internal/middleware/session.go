package middleware

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"northgate.capital/web/internal/session"
)

// SessionCookieName names the signed visitor cookie.
const SessionCookieName = "NORTHGATE_WEB_SESSION"

const sessionMaxAge = 30 * 24 * time.Hour

// SessionData is the signed cookie payload. Values backs session.Store.
type SessionData struct {
	ID        string            `json:"id"`
	Locale    string            `json:"locale,omitempty"`
	CSRFToken string            `json:"csrf,omitempty"`
	Values    map[string]string `json:"v,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	// internal dirty flag; not serialized
	dirty bool
}

var _ session.Store = (*SessionData)(nil)

var (
	sessionSignKey []byte
	sessionSecure  bool
)

func init() {
	sessionSignKey = make([]byte, 32)
	if _, err := rand.Read(sessionSignKey); err != nil {
		sessionSignKey = []byte("insecure-dev-key-set-NORTHGATE_WEB_SESSION_SIGNING_KEY")
	}
}

// ConfigureSessions sets the cookie signing key and the Secure flag. An
// empty key keeps the process-ephemeral key generated at startup.
func ConfigureSessions(signingKey string, secure bool) {
	if signingKey != "" {
		sessionSignKey = []byte(signingKey)
	}
	sessionSecure = secure
}

// Session attaches the visitor's signed session to the request. New or
// changed sessions are written back before the first byte of the response.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, valid := readSessionCookie(r)
		if sd.ID == "" {
			sd = newSessionData()
		}
		persist := func(w http.ResponseWriter) {
			if sd.dirty || !valid {
				writeSessionCookie(w, sd)
			}
		}
		rw := NewResponseRecorder(w)
		rw.SetBeforeWrite(persist)
		next.ServeHTTP(rw, r.WithContext(context.WithValue(r.Context(), ctxKeySession, sd)))
		if !rw.Wrote() {
			persist(w)
		}
	})
}

func newSessionData() *SessionData {
	now := time.Now().UTC()
	return &SessionData{
		ID:        randID(),
		CSRFToken: newCSRFToken(),
		CreatedAt: now,
		UpdatedAt: now,
		dirty:     true,
	}
}

// GetSession returns the request's session, or an empty detached one when
// the Session middleware did not run.
func GetSession(r *http.Request) *SessionData {
	if sd, ok := r.Context().Value(ctxKeySession).(*SessionData); ok {
		return sd
	}
	return &SessionData{}
}

// Store returns the visitor store for the request.
func Store(r *http.Request) session.Store {
	return GetSession(r)
}

// MarkDirty flags the session for writing at end of request
func (s *SessionData) MarkDirty() { s.dirty = true; s.UpdatedAt = time.Now().UTC() }

// Get implements session.Store.
func (s *SessionData) Get(key string) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// Set implements session.Store.
func (s *SessionData) Set(key, value string) {
	if cur, ok := s.Values[key]; ok && cur == value {
		return
	}
	if s.Values == nil {
		s.Values = map[string]string{}
	}
	s.Values[key] = value
	s.MarkDirty()
}

// Clear implements session.Store.
func (s *SessionData) Clear(keys ...string) {
	if len(s.Values) == 0 {
		return
	}
	if len(keys) == 0 {
		s.Values = nil
		s.MarkDirty()
		return
	}
	for _, k := range keys {
		if _, ok := s.Values[k]; ok {
			delete(s.Values, k)
			s.MarkDirty()
		}
	}
}

// RegenerateID assigns a new session ID and CSRF token to prevent fixation after auth.
func (s *SessionData) RegenerateID() {
	s.ID = randID()
	s.CSRFToken = newCSRFToken()
	s.MarkDirty()
}

// readSessionCookie returns the verified payload and whether the cookie was
// present and valid. Any tampering yields a fresh, empty session.
func readSessionCookie(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return &SessionData{}, false
	}
	payload, ok := openCookie(c.Value)
	if !ok {
		return &SessionData{}, false
	}
	sd := &SessionData{}
	if err := json.Unmarshal(payload, sd); err != nil {
		return &SessionData{}, false
	}
	return sd, true
}

func writeSessionCookie(w http.ResponseWriter, sd *SessionData) {
	payload, err := encodeSession(sd)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sealCookie(payload),
		Path:     "/",
		MaxAge:   int(sessionMaxAge / time.Second),
		HttpOnly: true,
		Secure:   sessionSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// encodeSession skips HTML escaping: the payload is base64 in a cookie and
// escaping would grow stored values up to sixfold.
func encodeSession(sd *SessionData) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(sd); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// sealCookie encodes payload as base64(payload) "." base64(hmac).
func sealCookie(payload []byte) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString(payload) + "." + enc.EncodeToString(sessionMAC(payload))
}

func openCookie(value string) ([]byte, bool) {
	enc := base64.RawURLEncoding
	rawPayload, rawSig, found := strings.Cut(value, ".")
	if !found {
		return nil, false
	}
	payload, perr := enc.DecodeString(rawPayload)
	sig, serr := enc.DecodeString(rawSig)
	if perr != nil || serr != nil || !hmac.Equal(sig, sessionMAC(payload)) {
		return nil, false
	}
	return payload, true
}

func sessionMAC(payload []byte) []byte {
	mac := hmac.New(sha256.New, sessionSignKey)
	mac.Write(payload)
	return mac.Sum(nil)
}

func randID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
