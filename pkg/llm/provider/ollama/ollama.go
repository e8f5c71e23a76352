// Package ollama implements llm.Client against a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/advisor/pkg/llm"
)

const (
	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	// DefaultModel is used when neither the config nor the request names a model.
	DefaultModel = "llama3.1"

	defaultTimeout = 120 * time.Second
)

// Config holds configuration for the Ollama chat client.
type Config struct {
	BaseURL   string
	Model     string
	KeepAlive string
	Timeout   time.Duration
}

// Client implements llm.Client with Ollama's /api/chat endpoint.
type Client struct {
	baseURL    string
	model      string
	keepAlive  string
	httpClient *http.Client
}

// New creates an Ollama chat client.
func New(cfg Config) *Client {
	c := &Client{
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		keepAlive: cfg.KeepAlive,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c.httpClient = &http.Client{Timeout: timeout}
	return c
}

// Complete sends a non-streaming chat request.
func (c *Client) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	body := chatRequest{
		Model:     model,
		Messages:  make([]chatMessage, 0, len(req.Messages)),
		KeepAlive: c.keepAlive,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	if req.JSONMode {
		body.Format = "json"
	}
	if req.Temperature != nil || req.MaxTokens != nil {
		body.Options = &chatOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("sending chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var e errorResponse
		msg := string(raw)
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			return nil, fmt.Errorf("%w: ollama returned status %d: %s", llm.ErrRateLimited, resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, msg)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding chat response: %w", err)
	}
	if out.Message.Content == "" {
		return nil, llm.ErrEmptyResponse
	}

	stopReason := out.DoneReason
	if stopReason == "" && out.Done {
		stopReason = "stop"
	}

	return &llm.ChatResponse{
		Model:      out.Model,
		CreatedAt:  out.CreatedAt,
		Message:    llm.AssistantMessage(out.Message.Content),
		StopReason: stopReason,
		Usage: llm.Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}

var _ llm.Client = (*Client)(nil)
