package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/papercomputeco/advisor/pkg/llm"
)

// Step is one think/act/observe iteration.
type Step struct {
	Thought     string         `json:"thought"`
	Tool        string         `json:"tool"`
	Args        map[string]any `json:"args,omitempty"`
	Observation string         `json:"observation"`
}

// Prediction is the result of one agent run.
type Prediction struct {
	Citations           string `json:"citations"`
	RelevantInformation string `json:"relevant_information"`
	Reasoning           string `json:"reasoning"`

	Trajectory []Step `json:"trajectory"`

	// Cost is the model spend of this run, tools included.
	Cost  float64   `json:"cost"`
	Usage llm.Usage `json:"usage"`

	// Calls is the number of model completions made.
	Calls int `json:"calls"`

	// Forced is true when the step budget ran out and the answer came from
	// the extract call.
	Forced bool `json:"forced,omitempty"`
}

// Waiting reports whether the run found nothing to surface.
func (p *Prediction) Waiting() bool {
	return p.RelevantInformation == WaitingSentinel
}

// ToolCalls returns the number of trajectory steps that invoked a tool.
func (p *Prediction) ToolCalls() int {
	n := 0
	for _, s := range p.Trajectory {
		if s.Tool != FinishTool {
			n++
		}
	}
	return n
}

// ToolCallsOf returns the number of steps that invoked the named tool.
func (p *Prediction) ToolCallsOf(name string) int {
	n := 0
	for _, s := range p.Trajectory {
		if s.Tool == name {
			n++
		}
	}
	return n
}

// finish copies the finish args onto p and normalises the waiting state.
func (p *Prediction) finish(args map[string]any) {
	p.Citations = strings.TrimSpace(citationsArg(args["citations"]))
	p.RelevantInformation = strings.TrimSpace(StringArg(args, "relevant_information"))
	p.Reasoning = strings.TrimSpace(StringArg(args, "reasoning"))

	if p.RelevantInformation == "" || strings.EqualFold(strings.TrimRight(p.RelevantInformation, ". "), WaitingSentinel) {
		p.RelevantInformation = WaitingSentinel
	}
	if p.Waiting() || p.Citations == "" {
		p.Citations = NoCitations
	}
}

// citationsArg accepts a string or a list of strings.
func citationsArg(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case []any:
		lines := make([]string, 0, len(c))
		for _, item := range c {
			lines = append(lines, fmt.Sprint(item))
		}
		return strings.Join(lines, "\n")
	default:
		return fmt.Sprint(c)
	}
}

// MarshalTrajectory renders the trajectory as indented JSON.
func (p *Prediction) MarshalTrajectory() string {
	b, err := json.MarshalIndent(p.Trajectory, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}
