package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the model answered with no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// LLMProvider defines the interface for interacting with a language model.
type LLMProvider interface {
	// Generate performs one non-streaming completion. Implementations make a
	// single attempt and never retry.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
	// Name identifies the provider in logs and metrics.
	Name() string
}

type GenerateRequest struct {
	// Operation names the gateway call ("question", "summary", ...) for logs
	// and metrics. It is not sent to the model.
	Operation string
	Model     string
	Prompt    string
	MaxTokens int
}

type GenerateResponse struct {
	Model    string
	Response string
}
