// Package llm holds the provider-agnostic chat types, the Client contract
// implemented under provider/, and cost accounting.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrUnauthorized is returned when the provider rejects the credentials.
	ErrUnauthorized = errors.New("model provider rejected credentials")

	// ErrRateLimited is returned when the provider throttles the request.
	ErrRateLimited = errors.New("model provider rate limited the request")

	// ErrEmptyResponse is returned when the provider answers without content.
	ErrEmptyResponse = errors.New("model provider returned no content")
)

// Client completes chat requests against a model provider.
type Client interface {
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	return f(ctx, req)
}
