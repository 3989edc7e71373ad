package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// NewGenAIDialer dials Gemini through google.golang.org/genai.
func NewGenAIDialer() Dialer {
	return func(ctx context.Context, credential string) (Model, error) {
		if strings.TrimSpace(credential) == "" {
			return nil, ErrNoCredential
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  credential,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		return &genaiModel{client: client}, nil
	}
}

type genaiModel struct {
	client *genai.Client
}

func (m *genaiModel) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	switch {
	case req.Grounded:
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case req.Schema != nil:
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}
	resp, err := m.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (m *genaiModel) StartVideo(ctx context.Context, req VideoRequest) (VideoOperation, error) {
	op, err := m.client.Models.GenerateVideos(ctx, req.Model, req.Prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    req.AspectRatio,
	})
	if err != nil {
		return VideoOperation{}, err
	}
	return fromGenAIOperation(op), nil
}

func (m *genaiModel) PollVideo(ctx context.Context, op VideoOperation) (VideoOperation, error) {
	next, err := m.client.Operations.GetVideosOperation(ctx, &genai.GenerateVideosOperation{Name: op.Name}, nil)
	if err != nil {
		return op, err
	}
	return fromGenAIOperation(next), nil
}

func fromGenAIOperation(op *genai.GenerateVideosOperation) VideoOperation {
	out := VideoOperation{Name: op.Name, Done: op.Done}
	if len(op.Error) > 0 {
		out.Failure = fmt.Sprint(op.Error["message"])
		if out.Failure == "" || out.Failure == "<nil>" {
			out.Failure = "video generation failed"
		}
		return out
	}
	if op.Response != nil {
		for _, v := range op.Response.GeneratedVideos {
			if v != nil && v.Video != nil && v.Video.URI != "" {
				out.VideoURI = v.Video.URI
				break
			}
		}
		if op.Done && out.VideoURI == "" && len(op.Response.RAIMediaFilteredReasons) > 0 {
			out.Failure = strings.Join(op.Response.RAIMediaFilteredReasons, "; ")
		}
	}
	return out
}
