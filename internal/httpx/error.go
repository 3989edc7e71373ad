// Package httpx writes the JSON envelope the /api endpoints answer with.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5/middleware"

	"northgate.capital/web/internal/requestctx"
)

// Error is an API failure. Code is machine-readable (for tool calls it is
// the AI failure kind), Message is safe to show to visitors.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

// NewError builds an Error. A zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{Code: clip(code, 80), Message: clip(message, 512), Status: status}
}

func (e Error) Error() string { return e.Code + ": " + e.Message }

// WithDetails returns a copy of e carrying extra top-level envelope fields.
// Details never replace the standard fields.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	e.Details = merged
	return e
}

// envelope renders e for the request in ctx.
func (e Error) envelope(ctx context.Context) map[string]any {
	out := make(map[string]any, len(e.Details)+5)
	for k, v := range e.Details {
		out[k] = v
	}
	out["error"] = e.Code
	out["message"] = e.Message
	out["status"] = e.Status
	if id := clip(middleware.GetReqID(ctx), 80); id != "" {
		out["request_id"] = id
	}
	if id := clip(requestctx.TraceID(ctx), 64); id != "" {
		out["trace_id"] = id
	}
	return out
}

// WriteError writes err as the JSON envelope.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	if err.Status == 0 {
		err.Status = http.StatusInternalServerError
	}
	WriteJSON(w, err.Status, err.envelope(ctx))
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// clip flattens control characters to spaces, trims and cuts to limit runes.
func clip(value string, limit int) string {
	value = strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, value))
	if utf8.RuneCountInString(value) > limit {
		value = strings.TrimSpace(string([]rune(value)[:limit]))
	}
	return value
}
