package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/dispatcher"
	"github.com/papercomputeco/advisor/pkg/transcription"
)

// Report is the outcome of a completed Run.
type Report struct {
	SessionID  string                `json:"session_id"`
	Finals     []transcription.Event `json:"finals"`
	Results    []dispatcher.Result   `json:"results"`
	Stats      dispatcher.Stats      `json:"stats"`
	Cost       float64               `json:"cost"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Duration   time.Duration         `json:"duration_ns"`
}

// Markdown renders the report for the terminal.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Analysis complete\n\n")
	fmt.Fprintf(&b, "%d utterances, %d results, cost $%.4f, took %s.\n\n",
		len(r.Finals), len(r.Results), r.Cost, r.Duration.Round(time.Millisecond))

	if len(r.Results) == 0 {
		b.WriteString("_No relevant notes were surfaced._\n")
	}
	for _, res := range r.Results {
		b.WriteString(ResultMarkdown(res))
	}

	if len(r.Finals) > 0 {
		b.WriteString("## Transcript\n\n")
		for _, e := range r.Finals {
			fmt.Fprintf(&b, "- **Speaker %s:** %s\n", e.SpeakerID, e.Text)
		}
	}
	return b.String()
}

// ResultMarkdown renders one result.
func ResultMarkdown(res dispatcher.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", res.DispatchedAt.Format(time.TimeOnly))
	fmt.Fprintf(&b, "> %s\n\n", res.Utterance)
	if res.Failed() {
		fmt.Fprintf(&b, "**Failed:** %s\n\n", res.Error)
		return b.String()
	}
	b.WriteString(PredictionMarkdown(res.Prediction))
	return b.String()
}

// PredictionMarkdown renders the relevant information and citations.
func PredictionMarkdown(p *agent.Prediction) string {
	if p == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**Relevant information:** %s\n\n", p.RelevantInformation)
	if p.Citations != "" && p.Citations != agent.NoCitations {
		b.WriteString("**Citations:**\n\n")
		for line := range strings.SplitSeq(p.Citations, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				fmt.Fprintf(&b, "- %s\n", line)
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
