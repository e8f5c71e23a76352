// Package anthropic implements llm.Client with the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/papercomputeco/advisor/pkg/llm"
)

const (
	// DefaultModel is used when neither the config nor the request names a model.
	DefaultModel = "claude-3-5-haiku-latest"

	defaultMaxTokens = 1024

	// jsonInstruction stands in for a JSON response format, which the
	// Messages API does not offer.
	jsonInstruction = "Respond with a single JSON object and nothing else."
)

// Config holds configuration for the Anthropic client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// MaxRetries overrides the SDK's retry count when positive.
	MaxRetries int
}

// Client implements llm.Client.
type Client struct {
	client *anthropic.Client
	model  string
}

// New creates an Anthropic chat client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic client requires an API key")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	client := anthropic.NewClient(opts...)

	return &Client{client: &client, model: model}, nil
}

// Complete sends the conversation to the Messages API.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	system, rest := llm.SplitSystem(req.Messages)
	if req.JSONMode {
		system = strings.TrimSpace(system + "\n\n" + jsonInstruction)
	}

	msgs := make([]anthropic.MessageParam, 0, len(rest))
	for _, m := range rest {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == llm.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens != nil {
		maxTokens = int64(*req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	rsp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	if b.Len() == 0 {
		return nil, llm.ErrEmptyResponse
	}

	prompt := int(rsp.Usage.InputTokens)
	completion := int(rsp.Usage.OutputTokens)

	return &llm.ChatResponse{
		Model:      string(rsp.Model),
		Message:    llm.AssistantMessage(b.String()),
		StopReason: string(rsp.StopReason),
		Usage: llm.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

func mapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", llm.ErrUnauthorized, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", llm.ErrRateLimited, err)
		}
	}
	return fmt.Errorf("anthropic messages: %w", err)
}

var _ llm.Client = (*Client)(nil)
