package llm

import (
	"context"
	"errors"
)

// Message is a single chat turn sent to a provider.
type Message struct {
	Role    string
	Content string
}

// Request captures a single completion call.
type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Client abstracts LLM providers for semantic candidate evaluation.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// ErrNotConfigured is returned when no provider credential is available.
var ErrNotConfigured = errors.New("llm provider not configured")

// PlaceholderClient stands in when no provider is wired. Every call fails
// with ErrNotConfigured so callers fall back without a network attempt.
// ModelName records the model that would have been used.
type PlaceholderClient struct {
	ModelName string
}

// Complete returns ErrNotConfigured.
func (PlaceholderClient) Complete(ctx context.Context, req Request) (string, error) {
	_ = ctx
	_ = req
	return "", ErrNotConfigured
}

// Model returns the configured model name, if any.
func (p PlaceholderClient) Model() string { return p.ModelName }
