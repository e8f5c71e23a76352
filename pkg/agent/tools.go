package agent

import (
	"context"
	"errors"
	"strings"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/notes"
	"github.com/papercomputeco/advisor/pkg/retrieval"
)

const (
	RetrieveNotesTool  = "retrieve_notes"
	SummarizeNotesTool = "summarize_notes"
)

type retrieveNotes struct {
	tool *retrieval.Tool
}

// NewRetrieveNotes exposes the retrieval tool to the agent. An unavailable
// note store aborts the run.
func NewRetrieveNotes(t *retrieval.Tool) Tool {
	return &retrieveNotes{tool: t}
}

func (r *retrieveNotes) Spec() Spec {
	return Spec{
		Name:        RetrieveNotesTool,
		Description: "Retrieve relevant notes from previous calls with this client.",
		Args: []Arg{{
			Name:        "query",
			Type:        "string",
			Description: "What to search for in the notes, phrased as the topic of the client's request.",
			Required:    true,
		}},
		Returns: "Relevant notes from previous calls with their distance values, lower is more relevant.",
	}
}

func (r *retrieveNotes) Call(ctx context.Context, args map[string]any) (string, error) {
	res, err := r.tool.Retrieve(ctx, StringArg(args, "query"))
	if err != nil {
		if errors.Is(err, notes.ErrStoreUnavailable) {
			return "", Abort(err)
		}
		return "", err
	}
	return res.Text(), nil
}

const summarizeInstructions = `Summarize relevant notes from previous calls.
Provide a bullet point summary in English of the notes with low distance values.
Reply with the bullet points only.`

type summarizeNotes struct {
	client llm.Client
	model  string
}

// NewSummarizeNotes returns a tool that asks the model for a bullet point
// summary of retrieved notes.
func NewSummarizeNotes(client llm.Client, model string) Tool {
	return &summarizeNotes{client: client, model: model}
}

func (s *summarizeNotes) Spec() Spec {
	return Spec{
		Name:        SummarizeNotesTool,
		Description: "Summarize relevant notes retrieved from previous calls as bullet points.",
		Args: []Arg{{
			Name:        "relevant_notes",
			Type:        "string",
			Description: "Relevant notes from previous calls with low distance values.",
			Required:    true,
		}},
		Returns: "A bullet point summary in English of the relevant notes.",
	}
}

func (s *summarizeNotes) Call(ctx context.Context, args map[string]any) (string, error) {
	resp, err := Complete(ctx, s.client, &llm.ChatRequest{
		Model: s.model,
		Messages: []llm.Message{
			llm.SystemMessage(summarizeInstructions),
			llm.UserMessage(StringArg(args, "relevant_notes")),
		},
		Temperature: llm.Float64(0),
	})
	if err != nil {
		if errors.Is(err, llm.ErrUnauthorized) {
			return "", Abort(err)
		}
		return "", err
	}
	summary := strings.TrimSpace(resp.Message.Content)
	if summary == "" {
		return "", llm.ErrEmptyResponse
	}
	return summary, nil
}

// StandardTools returns the advisor toolset: retrieve_notes, plus
// summarize_notes when summarizer is not nil.
func StandardTools(ret *retrieval.Tool, summarizer llm.Client, model string) *Registry {
	reg := NewRegistry(NewRetrieveNotes(ret))
	if summarizer != nil {
		reg.MustRegister(NewSummarizeNotes(summarizer, model))
	}
	return reg
}
