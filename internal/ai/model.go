package ai

import (
	"context"

	"google.golang.org/genai"
)

// Request is one text or schema generation call.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature *float32
	// Schema switches the call to JSON output.
	Schema *genai.Schema
	// Grounded attaches web search. The API does not accept a response
	// schema together with tools, so grounded schema calls describe the JSON
	// shape in the prompt and rely on post-parse validation.
	Grounded bool
}

// VideoRequest starts a long-running video generation.
type VideoRequest struct {
	Model       string
	Prompt      string
	AspectRatio string
}

// VideoOperation is the provider's handle on a running video job.
type VideoOperation struct {
	Name     string
	Done     bool
	VideoURI string
	// Failure is set when the provider finished the job with an error.
	Failure string
}

// Model is the narrow surface the facade needs from a provider.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
	StartVideo(ctx context.Context, req VideoRequest) (VideoOperation, error)
	PollVideo(ctx context.Context, op VideoOperation) (VideoOperation, error)
}

// Dialer returns a fresh Model bound to credential. It is invoked once per
// call so a key chosen moments ago is always the one used.
type Dialer func(ctx context.Context, credential string) (Model, error)
