package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/advisor/pkg/utils"
)

// WaitingSentinel is the relevant_information value of a run that found
// nothing worth surfacing yet.
const WaitingSentinel = "Waiting for more information"

// NoCitations is the citations value paired with WaitingSentinel.
const NoCitations = "None"

// DefaultInstructions is the advisor policy given to the model.
const DefaultInstructions = `You assist a bank client advisor during a live call with a client.
Based on the recent utterances, decide what information from previous calls the advisor might need.
Only call retrieve_notes once you have determined the client's intent with high confidence.
If the input is ambiguous, small talk, or otherwise insufficient, finish immediately with relevant_information set to "` + WaitingSentinel + `" and citations set to "` + NoCitations + `".
If notes were retrieved, summarize only notes with low distance values concisely and ignore notes with high distance values.
Copy the text of every note you rely on verbatim into citations, one note per line.`

const protocol = `Reply with exactly one JSON object per turn and nothing else:
{"thought": "<your reasoning for this step>", "tool": "<tool name or finish>", "args": {<arguments>}}

To end the run use the tool "finish" with args:
{"citations": "<verbatim note text you relied on, or None>", "relevant_information": "<concise summary for the advisor, or ` + WaitingSentinel + `>", "reasoning": "<why>"}`

const extractPrompt = `You have used every available step. Do not call any more tools.
Reply now with the finish action as a single JSON object:
{"thought": "...", "tool": "finish", "args": {"citations": "...", "relevant_information": "...", "reasoning": "..."}}`

// buildSystemPrompt compiles the instructions and tool specs into the
// system message.
func buildSystemPrompt(instructions string, specs []Spec) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\nTools:\n")
	for i, s := range specs {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, s.Name, s.Description)
		for _, a := range s.Args {
			req := "optional"
			if a.Required {
				req = "required"
			}
			fmt.Fprintf(&b, "   - %s (%s, %s): %s\n", a.Name, a.Type, req, a.Description)
		}
		if s.Returns != "" {
			fmt.Fprintf(&b, "   Returns: %s\n", s.Returns)
		}
	}
	fmt.Fprintf(&b, "%d. %s: Marks the task as complete and returns the final answer.\n\n", len(specs)+1, FinishTool)
	b.WriteString(protocol)
	return b.String()
}

// buildUserPrompt renders the transcript and any remembered utterances.
func buildUserPrompt(transcript string, earlier []string) string {
	var b strings.Builder
	if len(earlier) > 0 {
		b.WriteString("Earlier in the call:\n")
		for _, line := range earlier {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	b.WriteString("Recent utterances:\n")
	b.WriteString(transcript)
	return b.String()
}

func observationPrompt(observation string) string {
	return "Observation: " + observation
}

// action is one model step.
type action struct {
	Thought string         `json:"thought"`
	Tool    string         `json:"tool"`
	Args    map[string]any `json:"args"`
}

// parseAction extracts the JSON object from a reply, tolerating markdown
// fences or prose around it.
func parseAction(reply string) (action, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return action{}, err
	}
	var act action
	if err := json.Unmarshal([]byte(raw), &act); err != nil {
		return action{}, fmt.Errorf("unmarshal action: %w", err)
	}
	if act.Tool == "" {
		return action{}, errors.New("action has no tool")
	}
	if act.Args == nil {
		act.Args = map[string]any{}
	}
	return act, nil
}

// parseFinish reads finish args from a forced-extract reply. Both a full
// finish action and a bare object of finish fields are accepted.
func parseFinish(reply string) (action, error) {
	raw, err := extractJSON(reply)
	if err != nil {
		return action{}, err
	}
	var act action
	if err := json.Unmarshal([]byte(raw), &act); err == nil && act.Tool == FinishTool {
		return act, nil
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return action{}, fmt.Errorf("unmarshal finish: %w", err)
	}
	thought := StringArg(fields, "thought")
	if args, ok := fields["args"].(map[string]any); ok {
		fields = args
	}
	return action{Thought: thought, Tool: FinishTool, Args: fields}, nil
}

func extractJSON(reply string) (string, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in reply %q", utils.Truncate(reply, 80))
	}
	return reply[start : end+1], nil
}
