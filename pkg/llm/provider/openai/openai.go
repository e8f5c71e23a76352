// Package openai implements llm.Client for OpenAI and Azure OpenAI chat
// completions.
package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/advisor/pkg/llm"
)

// DefaultModel is used when neither the config nor the request names a model.
const DefaultModel = "gpt-4o"

// Config holds configuration for the chat client.
type Config struct {
	APIKey string

	// BaseURL overrides the OpenAI API URL. Ignored for Azure.
	BaseURL string

	// Model is the default model. For Azure it is the deployment name.
	Model string

	// AzureEndpoint switches the client to Azure OpenAI when set.
	AzureEndpoint string
	APIVersion    string
}

// Client implements llm.Client with go-openai.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a chat client for OpenAI or, when AzureEndpoint is set, for
// an Azure OpenAI deployment.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai chat client requires an API key")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	var clientCfg openai.ClientConfig
	if cfg.AzureEndpoint != "" {
		clientCfg = openai.DefaultAzureConfig(cfg.APIKey, cfg.AzureEndpoint)
		if cfg.APIVersion != "" {
			clientCfg.APIVersion = cfg.APIVersion
		}
		// Each request names its deployment through the model field.
		clientCfg.AzureModelMapperFunc = func(m string) string { return m }
	} else {
		clientCfg = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
	}

	return &Client{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

// Complete sends a chat completion request.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	creq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
	}
	if req.Temperature != nil {
		creq.Temperature = float32(*req.Temperature)
		if creq.Temperature == 0 {
			// go-openai omits a zero temperature; this is the documented way to send 0.
			creq.Temperature = math.SmallestNonzeroFloat32
		}
	}
	if req.MaxTokens != nil {
		creq.MaxTokens = *req.MaxTokens
	}
	if req.JSONMode {
		creq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	rsp, err := c.client.CreateChatCompletion(ctx, creq)
	if err != nil {
		return nil, mapError(err)
	}

	if len(rsp.Choices) == 0 {
		return nil, llm.ErrEmptyResponse
	}
	choice := rsp.Choices[0]

	out := &llm.ChatResponse{
		Model:      rsp.Model,
		Message:    llm.AssistantMessage(choice.Message.Content),
		StopReason: string(choice.FinishReason),
		Usage: llm.Usage{
			PromptTokens:     rsp.Usage.PromptTokens,
			CompletionTokens: rsp.Usage.CompletionTokens,
			TotalTokens:      rsp.Usage.TotalTokens,
		},
	}
	if rsp.Created > 0 {
		out.CreatedAt = time.Unix(rsp.Created, 0)
	}
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}

func mapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", llm.ErrUnauthorized, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", llm.ErrRateLimited, err)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", llm.ErrUnauthorized, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", llm.ErrRateLimited, err)
		}
	}
	return fmt.Errorf("chat completion: %w", err)
}

var _ llm.Client = (*Client)(nil)
