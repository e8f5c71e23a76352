package cliui

import (
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/dispatcher"
)

// ResultCard renders a surfaced or failed result as a bordered card.
func ResultCard(res dispatcher.Result) string {
	lines := []string{
		TitleStyle.Render(res.DispatchedAt.Format(time.TimeOnly)) + " " + UtteranceStyle.Render(res.Utterance),
	}
	if res.Failed() {
		lines = append(lines, ErrorStyle.Render(res.Error))
		return cardStyle.Render(strings.Join(lines, "\n"))
	}
	lines = append(lines, predictionLines(res.Prediction)...)
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// PredictionCard renders a text-mode prediction.
func PredictionCard(p *agent.Prediction) string {
	return cardStyle.Render(strings.Join(predictionLines(p), "\n"))
}

func predictionLines(p *agent.Prediction) []string {
	if p == nil {
		return nil
	}
	lines := []string{p.RelevantInformation}
	if p.Citations != "" && p.Citations != agent.NoCitations {
		for c := range strings.SplitSeq(p.Citations, "\n") {
			if c = strings.TrimSpace(c); c != "" {
				lines = append(lines, CitationStyle.Render("“"+c+"”"))
			}
		}
	}
	lines = append(lines, StepStyle.Render(fmt.Sprintf("%d tool calls · %s", p.ToolCalls(), FormatCost(p.Cost))))
	return lines
}

// FormatCost formats a USD amount with enough precision for single calls.
func FormatCost(c float64) string {
	return fmt.Sprintf("$%.4f", c)
}
