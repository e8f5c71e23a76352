package llm

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Call is one recorded model invocation.
type Call struct {
	At       time.Time
	Model    string
	Messages []Message
	Reply    string
	Usage    Usage
	Cost     float64
}

// History is a bounded, concurrency-safe log of model calls with their cost.
type History struct {
	mu      sync.Mutex
	pricing PricingTable
	limit   int
	calls   []Call
	total   float64
}

// NewHistory creates a History that keeps the latest limit calls. The
// running total covers every call ever recorded. A limit <= 0 keeps all.
func NewHistory(pricing PricingTable, limit int) *History {
	if pricing == nil {
		pricing = DefaultPricing()
	}
	return &History{pricing: pricing, limit: limit}
}

// Record prices and appends a completed call, returning the stored entry.
func (h *History) Record(req *ChatRequest, resp *ChatResponse) Call {
	model := resp.Model
	if model == "" {
		model = req.Model
	}

	call := Call{
		At:       time.Now(),
		Model:    model,
		Messages: slices.Clone(req.Messages),
		Reply:    resp.Message.Content,
		Usage:    resp.Usage,
		Cost:     CostForUsage(h.pricing, model, resp.Usage),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.total += call.Cost
	h.calls = append(h.calls, call)
	if h.limit > 0 && len(h.calls) > h.limit {
		h.calls = slices.Clone(h.calls[len(h.calls)-h.limit:])
	}
	return call
}

// Last returns up to n of the most recent calls, oldest first.
func (h *History) Last(n int) []Call {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n <= 0 || n > len(h.calls) {
		n = len(h.calls)
	}
	return slices.Clone(h.calls[len(h.calls)-n:])
}

// TotalCost returns the summed cost of every recorded call.
func (h *History) TotalCost() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// Metered wraps a Client so each successful completion is recorded.
func Metered(inner Client, h *History) Client {
	return ClientFunc(func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		resp, err := inner.Complete(ctx, req)
		if err != nil {
			return nil, err
		}
		h.Record(req, resp)
		return resp, nil
	})
}
