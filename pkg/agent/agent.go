// Package agent implements the reasoning loop that decides, per utterance,
// whether to search the note store and what to tell the advisor.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/utils"
)

// Agent runs a bounded think/act/observe loop over a tool registry.
// An Agent holds no per-run state and may be shared.
type Agent struct {
	client   llm.Client
	registry *Registry
	logger   *slog.Logger

	instructions string
	model        string
	temperature  float64
	maxSteps     int
	timeout      time.Duration

	memory        *Memory
	counter       llm.TokenCounter
	contextTokens int

	pricing llm.PricingTable
	history *llm.History
}

// New creates an Agent. A nil registry means no tools: every run finishes
// without searching.
func New(client llm.Client, reg *Registry, opts ...Option) *Agent {
	if reg == nil {
		reg = NewRegistry()
	}
	a := &Agent{
		client:       client,
		registry:     reg,
		logger:       logger.Nop(),
		instructions: DefaultInstructions,
		maxSteps:     DefaultMaxSteps,
		pricing:      llm.DefaultPricing(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxSteps returns the configured step budget.
func (a *Agent) MaxSteps() int {
	return a.maxSteps
}

// SystemPrompt returns the compiled instructions and tool schema.
func (a *Agent) SystemPrompt() string {
	return buildSystemPrompt(a.instructions, a.registry.Specs())
}

// Run analyzes a transcript and returns the prediction. Tool failures are
// fed back to the model; model provider failures and aborted tools return
// an error wrapping ErrAgentInvocationFailed.
func (a *Agent) Run(ctx context.Context, transcript string) (*Prediction, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	pred := &Prediction{}
	m := &meter{pricing: a.pricing, history: a.history, pred: pred}
	ctx = context.WithValue(ctx, meterKey{}, m)

	msgs := []llm.Message{
		llm.SystemMessage(a.SystemPrompt()),
		llm.UserMessage(buildUserPrompt(transcript, a.earlier(transcript))),
	}

	started := time.Now()
	for step := range a.maxSteps {
		reply, err := a.complete(ctx, msgs)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, llm.AssistantMessage(reply))

		act, err := parseAction(reply)
		if err != nil {
			obs := fmt.Sprintf("Your reply was not a valid action: %v. Reply with one JSON object.", err)
			a.logger.Debug("unparsable agent reply", "step", step, "error", err)
			pred.Trajectory = append(pred.Trajectory, Step{Observation: obs})
			msgs = append(msgs, llm.UserMessage(observationPrompt(obs)))
			continue
		}

		if act.Tool == FinishTool {
			pred.Trajectory = append(pred.Trajectory, Step{Thought: act.Thought, Tool: FinishTool, Args: act.Args, Observation: "Completed."})
			pred.finish(act.Args)
			a.logDone(pred, started)
			return pred, nil
		}

		obs, err := a.act(ctx, act)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("agent step",
			"step", step,
			"tool", act.Tool,
			"observation", utils.Truncate(obs, 120),
		)
		pred.Trajectory = append(pred.Trajectory, Step{Thought: act.Thought, Tool: act.Tool, Args: act.Args, Observation: obs})
		msgs = append(msgs, llm.UserMessage(observationPrompt(obs)))
	}

	// Step budget exhausted: one extract call forces the answer.
	pred.Forced = true
	msgs = append(msgs, llm.UserMessage(extractPrompt))
	reply, err := a.complete(ctx, msgs)
	if err != nil {
		return nil, err
	}
	act, err := parseFinish(reply)
	if err != nil {
		a.logger.Warn("could not parse forced finish", "error", err)
		act = action{Tool: FinishTool, Args: map[string]any{}}
	}
	pred.finish(act.Args)
	a.logDone(pred, started)
	return pred, nil
}

func (a *Agent) complete(ctx context.Context, msgs []llm.Message) (string, error) {
	req := &llm.ChatRequest{
		Model:       a.model,
		Messages:    slices.Clone(msgs),
		Temperature: llm.Float64(a.temperature),
		JSONMode:    true,
	}
	resp, err := Complete(ctx, a.client, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAgentInvocationFailed, err)
	}
	return resp.Message.Content, nil
}

// act runs a tool and returns its observation. Only aborted tools and a
// cancelled context produce an error.
func (a *Agent) act(ctx context.Context, act action) (string, error) {
	tool, ok := a.registry.Get(act.Tool)
	if !ok {
		return fmt.Sprintf("Unknown tool %q. Available tools: %s.", act.Tool,
			strings.Join(append(a.registry.Names(), FinishTool), ", ")), nil
	}

	if missing := missingArgs(tool.Spec(), act.Args); len(missing) > 0 {
		return fmt.Sprintf("Execution of %s failed: missing required argument(s) %s", act.Tool, strings.Join(missing, ", ")), nil
	}

	obs, err := tool.Call(ctx, act.Args)
	if err == nil {
		return obs, nil
	}

	var abort *abortError
	if errors.As(err, &abort) {
		return "", fmt.Errorf("%w: tool %s: %w", ErrAgentInvocationFailed, act.Tool, abort.err)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("%w: %w", ErrAgentInvocationFailed, ctxErr)
	}

	a.logger.Warn("tool execution failed", "tool", act.Tool, "error", err)
	return fmt.Sprintf("Execution of %s failed: %v", act.Tool, err), nil
}

func (a *Agent) logDone(pred *Prediction, started time.Time) {
	a.logger.Debug("agent run complete",
		"steps", len(pred.Trajectory),
		"tool_calls", pred.ToolCalls(),
		"waiting", pred.Waiting(),
		"forced", pred.Forced,
		"cost", pred.Cost,
		"duration", time.Since(started),
	)
}

type meterKey struct{}

// meter accumulates usage and cost of every completion in a run.
type meter struct {
	mu      sync.Mutex
	pricing llm.PricingTable
	history *llm.History
	pred    *Prediction
}

func (m *meter) record(req *llm.ChatRequest, resp *llm.ChatResponse) {
	model := resp.Model
	if model == "" {
		model = req.Model
	}
	cost := llm.CostForUsage(m.pricing, model, resp.Usage)
	if m.history != nil {
		m.history.Record(req, resp)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pred.Calls++
	m.pred.Usage = m.pred.Usage.Add(resp.Usage)
	m.pred.Cost += cost
}

// Complete calls client and, when ctx belongs to an agent run, adds the
// usage and cost to that run's prediction. LLM-backed tools use it so their
// spend is counted.
func Complete(ctx context.Context, client llm.Client, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if m, ok := ctx.Value(meterKey{}).(*meter); ok {
		m.record(req, resp)
	}
	return resp, nil
}

// earlier returns the remembered utterances that fit the context budget.
func (a *Agent) earlier(transcript string) []string {
	lines := a.memory.Recent(transcript)
	if a.counter == nil || len(lines) == 0 {
		return lines
	}
	total := 0
	for i := len(lines) - 1; i >= 0; i-- {
		total += a.counter.Count(lines[i])
		if total > a.contextTokens {
			return lines[i+1:]
		}
	}
	return lines
}
