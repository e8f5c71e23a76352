// Package analyzecmder provides the analyze command: one direct invocation
// on typed text, or a whole call replayed from a transcript file.
package analyzecmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/cmd/advisor/wiring"
	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/cliui"
	"github.com/papercomputeco/advisor/pkg/dispatcher"
	"github.com/papercomputeco/advisor/pkg/dotdir"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/transcription"
	"github.com/papercomputeco/advisor/pkg/transcription/file"
)

const analyzeLongDesc string = `Analyze a call and surface relevant notes from previous calls.

Text mode runs the agent once on the given text. Transcript mode replays a
JSON lines file of recognizer events, one object per line:

  {"speaker_id":"1","text":"Good morning","type":"final"}

Every final utterance is analyzed in the background. Results are printed as
they arrive, followed by a report when the transcript ends. With --follow the
file is tailed until interrupted. With --save the report is also written to
the reports/ directory of .advisor/, see "advisor reports".

Examples:
  advisor analyze --text "Speaker 2: my debit card stopped working"
  advisor analyze --transcript call.jsonl
  advisor analyze --transcript live.jsonl --follow
  advisor analyze --transcript call.jsonl --save`

const analyzeShortDesc string = "Analyze text or a call transcript"

type analyzeCommander struct {
	text       string
	transcript string
	follow     bool
	delay      time.Duration
	save       bool

	flagKeys []string
}

func NewAnalyzeCmd() *cobra.Command {
	cmder := &analyzeCommander{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: analyzeShortDesc,
		Long:  analyzeLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.text, "text", "x", "", "Analyze this text once")
	cmd.Flags().StringVarP(&cmder.transcript, "transcript", "f", "", "Replay a JSON lines transcript file")
	cmd.Flags().BoolVar(&cmder.follow, "follow", false, "Keep tailing the transcript file")
	cmd.Flags().DurationVar(&cmder.delay, "delay", 0, "Pause between replayed events")
	cmd.Flags().BoolVar(&cmder.save, "save", false, "Save the transcript report under .advisor/reports")
	cmd.MarkFlagsMutuallyExclusive("text", "transcript")
	cmd.MarkFlagsOneRequired("text", "transcript")

	cmder.flagKeys = append(wiring.AddStoreFlags(cmd), wiring.AddAgentFlags(cmd)...)

	return cmd
}

func (c *analyzeCommander) run(cmd *cobra.Command) error {
	if c.follow && c.transcript == "" {
		return fmt.Errorf("--follow requires --transcript")
	}
	if c.save && c.transcript == "" {
		return fmt.Errorf("--save requires --transcript")
	}

	cfg, err := wiring.LoadConfig(cmd, c.flagKeys)
	if err != nil {
		return err
	}
	logger := wiring.NewLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := wiring.NewStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := deps.EnableAgent(); err != nil {
		return err
	}

	sess, err := deps.NewSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	out := cmd.OutOrStdout()
	if c.text != "" {
		return analyzeText(ctx, out, sess, c.text)
	}

	rec := file.New(file.Config{
		Path:   c.transcript,
		Follow: c.follow,
		Delay:  c.delay,
		Logger: logger,
	})
	report, err := analyzeTranscript(ctx, out, sess, rec)
	if err != nil || !c.save {
		return err
	}

	configDir, _ := cmd.Flags().GetString("config-dir")
	return saveReport(out, configDir, report)
}

func analyzeText(ctx context.Context, w io.Writer, sess *session.Session, text string) error {
	var pred *agent.Prediction
	if err := cliui.Step(w, "Analyzing", func() error {
		var err error
		pred, err = sess.AnalyzeText(ctx, text)
		return err
	}); err != nil {
		return err
	}

	if pred.Waiting() {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.DimStyle.Render(agent.WaitingSentinel),
			cliui.DimStyle.Render(cliui.FormatCost(pred.Cost)),
		)
		return nil
	}

	fmt.Fprintf(w, "\n%s\n\n", cliui.PredictionCard(pred))
	return nil
}

func analyzeTranscript(ctx context.Context, w io.Writer, sess *session.Session, rec transcription.Recognizer) (*session.Report, error) {
	// Results and transcript lines come from different goroutines.
	var mu sync.Mutex
	sess.SubscribeTranscript(func(e transcription.Event) {
		if e.Type != transcription.Final {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, cliui.DimStyle.Render(e.Utterance()))
	})
	sess.Subscribe(func(r dispatcher.Result) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, cliui.ResultCard(r))
	})

	report, err := sess.Run(ctx, rec)
	if err != nil {
		return nil, err
	}

	rendered, err := cliui.RenderMarkdown(report.Markdown())
	if err != nil {
		// glamour failed, fall back to the raw markdown
		rendered = report.Markdown()
	}
	fmt.Fprint(w, rendered)

	if ctx.Err() != nil {
		fmt.Fprintln(os.Stderr, cliui.DimStyle.Render("interrupted"))
	}
	return report, nil
}

// reportName starts with the start time so that listings sort
// chronologically, followed by the first 8 characters of the session uuid.
func reportName(report *session.Report) string {
	id := strings.TrimPrefix(report.SessionID, "sess_")
	return report.StartedAt.UTC().Format("20060102-150405") + "-" + id[:min(8, len(id))]
}

func saveReport(w io.Writer, configDir string, report *session.Report) error {
	path, err := dotdir.NewManager().SaveReport(configDir, reportName(report), report)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	fmt.Fprintf(w, "  %s Saved report %s\n\n", cliui.SuccessMark, cliui.DimStyle.Render(path))
	return nil
}
