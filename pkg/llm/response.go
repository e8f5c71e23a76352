package llm

import "time"

// ChatResponse is a provider-agnostic chat completion response.
type ChatResponse struct {
	// Model that generated the response, as reported by the provider.
	Model string `json:"model"`

	CreatedAt time.Time `json:"created_at,omitzero"`

	Message Message `json:"message"`

	// StopReason is the provider's finish reason ("stop", "length", "end_turn").
	StopReason string `json:"stop_reason,omitempty"`

	Usage Usage `json:"usage"`
}

// Usage holds token counts for one or more calls.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		TotalTokens:      u.TotalTokens + o.TotalTokens,
	}
}
