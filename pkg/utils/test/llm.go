package testutils

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/papercomputeco/advisor/pkg/llm"
)

// ErrNoScriptedReply is returned by MockLLM once its replies run out.
var ErrNoScriptedReply = errors.New("mock llm: no scripted reply left")

// MockLLM is an llm.Client that replays scripted replies in order.
type MockLLM struct {
	mu sync.Mutex

	// Replies are returned one per call.
	Replies []string

	// Respond, when set, computes the reply instead of Replies.
	Respond func(req *llm.ChatRequest) (string, error)

	// Err is returned by every call when set.
	Err error

	Model string
	Usage llm.Usage

	requests []*llm.ChatRequest
}

// NewMockLLM returns a MockLLM with the given replies, reporting gpt-4o
// and a fixed usage per call.
func NewMockLLM(replies ...string) *MockLLM {
	return &MockLLM{
		Replies: replies,
		Model:   "gpt-4o",
		Usage:   llm.Usage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	}
}

func (m *MockLLM) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.Err != nil {
		return nil, m.Err
	}

	var reply string
	switch {
	case m.Respond != nil:
		r, err := m.Respond(req)
		if err != nil {
			return nil, err
		}
		reply = r
	case len(m.Replies) > 0:
		reply = m.Replies[0]
		m.Replies = m.Replies[1:]
	default:
		return nil, ErrNoScriptedReply
	}

	return &llm.ChatResponse{
		Model:      m.Model,
		Message:    llm.AssistantMessage(reply),
		StopReason: "stop",
		Usage:      m.Usage,
	}, nil
}

// Requests returns the requests received so far.
func (m *MockLLM) Requests() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// Calls returns the number of requests received.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
