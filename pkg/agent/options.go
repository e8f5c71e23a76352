package agent

import (
	"log/slog"
	"time"

	"github.com/papercomputeco/advisor/pkg/llm"
)

const DefaultMaxSteps = 6

type Option func(*Agent)

// WithMaxSteps caps the think/act iterations before the forced extract.
// Values below 1 are ignored.
func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

func WithInstructions(s string) Option {
	return func(a *Agent) {
		if s != "" {
			a.instructions = s
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMemory includes earlier utterances of the session in the prompt.
func WithMemory(m *Memory) Option {
	return func(a *Agent) { a.memory = m }
}

// WithModel sets the model or deployment name sent with each request.
func WithModel(model string) Option {
	return func(a *Agent) { a.model = model }
}

func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

// WithPricing sets the table used to price each completion.
func WithPricing(p llm.PricingTable) Option {
	return func(a *Agent) {
		if p != nil {
			a.pricing = p
		}
	}
}

// WithHistory records every completion of the run, tools included.
func WithHistory(h *llm.History) Option {
	return func(a *Agent) { a.history = h }
}

// WithTimeout bounds a whole run. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(a *Agent) { a.timeout = d }
}

// WithContextBudget caps the earlier utterances included in the prompt to
// maxTokens as measured by counter. The oldest lines are dropped first.
func WithContextBudget(counter llm.TokenCounter, maxTokens int) Option {
	return func(a *Agent) {
		if counter != nil && maxTokens > 0 {
			a.counter = counter
			a.contextTokens = maxTokens
		}
	}
}
