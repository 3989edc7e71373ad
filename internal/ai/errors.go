package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Kind tags every failure returned by the facade.
type Kind string

const (
	KindNetworkFailure    Kind = "network_failure"
	KindInvalidCredential Kind = "invalid_credential"
	KindSchemaMismatch    Kind = "schema_mismatch"
)

var (
	// ErrNoCredential is returned when neither the caller nor the config
	// supplies an API key.
	ErrNoCredential = errors.New("ai: no API credential configured")
	// ErrEmptyResponse is returned when the model answers without text.
	ErrEmptyResponse = errors.New("ai: empty model response")
	// ErrPromptRequired is a caller error and carries no Kind.
	ErrPromptRequired = errors.New("ai: video prompt is required")
)

// Error is the single error type callers of the facade handle.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ai %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the tag of err, or "" when err did not come from the facade.
func KindOf(err error) Kind {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Kind
	}
	return ""
}

// classify maps transport and API errors to a Kind.
func classify(op string, err error) *Error {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr
	}
	kind := KindNetworkFailure
	var apiErr genai.APIError
	switch {
	case errors.Is(err, ErrNoCredential):
		kind = KindInvalidCredential
	case errors.As(err, &apiErr):
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden || credentialMessage(apiErr.Message) {
			kind = KindInvalidCredential
		}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		kind = KindNetworkFailure
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// The video endpoints report a revoked or unbilled key with these messages
// rather than a 401.
func credentialMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "api key not valid") ||
		strings.Contains(msg, "api_key_invalid") ||
		strings.Contains(msg, "requested entity was not found")
}

// Fallback copy shown in place of a model answer.
const (
	FallbackNetwork    = "Node communication failure. Our analysts have been notified; please retry shortly."
	FallbackCredential = "Access key rejected. Select a valid API key and try again."
	FallbackSchema     = "The analysis engine returned an unreadable report. Please retry shortly."
)

// FallbackMessage converts err into the static string shown to visitors.
func FallbackMessage(err error) string {
	switch KindOf(err) {
	case KindInvalidCredential:
		return FallbackCredential
	case KindSchemaMismatch:
		return FallbackSchema
	default:
		return FallbackNetwork
	}
}
