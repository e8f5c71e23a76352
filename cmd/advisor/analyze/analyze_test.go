package analyzecmder

import (
	"bytes"
	"context"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/dispatcher"
	"github.com/papercomputeco/advisor/pkg/dotdir"
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/notes"
	"github.com/papercomputeco/advisor/pkg/retrieval"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/transcription"
	testutils "github.com/papercomputeco/advisor/pkg/utils/test"
)

const debitNote = "Client requested a new debit card, ordered free replacement"

func cardLLM() *testutils.MockLLM {
	m := testutils.NewMockLLM()
	m.Respond = func(req *llm.ChatRequest) (string, error) {
		prompt := req.Messages[1].Content
		transcript := prompt[strings.LastIndex(prompt, "Recent utterances:"):]
		last := req.Messages[len(req.Messages)-1].Content
		switch {
		case !strings.Contains(transcript, "card"):
			return `{"thought":"","tool":"finish","args":{"citations":"None","relevant_information":"Waiting for more information","reasoning":""}}`, nil
		case !strings.HasPrefix(last, "Observation: "):
			return `{"thought":"","tool":"retrieve_notes","args":{"query":"debit card"}}`, nil
		default:
			return `{"thought":"","tool":"finish","args":{"citations":"` + debitNote + `","relevant_information":"Card replaced before.","reasoning":""}}`, nil
		}
	}
	return m
}

var _ = Describe("analyze command", func() {
	var (
		ctx  context.Context
		sess *session.Session
		out  *bytes.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()
		out = &bytes.Buffer{}

		embedder := testutils.NewMockEmbedder()
		embedder.Embeddings[debitNote] = []float32{1, 0, 0}
		embedder.Embeddings["debit card"] = []float32{1, 0, 0}
		store := notes.NewStore(embedder, testutils.NewMockVectorDriver(), logger.Nop())
		Expect(store.Upsert(ctx, []notes.Note{{Text: debitNote}})).To(Succeed())

		client := cardLLM()
		tool := retrieval.NewTool(store, retrieval.DefaultConfig())

		var err error
		sess, err = session.New(&session.Config{
			Runner: func() (dispatcher.Runner, error) {
				return agent.New(client, agent.StandardTools(tool, nil, "")), nil
			},
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires --text or --transcript", func() {
		cmd := NewAnalyzeCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).NotTo(Succeed())
	})

	It("rejects --text together with --transcript", func() {
		cmd := NewAnalyzeCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs([]string{"--text", "x", "--transcript", "call.jsonl"})
		Expect(cmd.Execute()).NotTo(Succeed())
	})

	It("registers the shared config flags", func() {
		cmd := NewAnalyzeCmd()
		Expect(cmd.Flags().Lookup("n-results")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("similarity-threshold")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("max-steps")).NotTo(BeNil())
	})

	It("prints the citation in text mode", func() {
		Expect(analyzeText(ctx, out, sess, "Speaker 2: my debit card is broken")).To(Succeed())
		Expect(out.String()).To(ContainSubstring(debitNote))
	})

	It("prints the waiting sentinel on small talk", func() {
		Expect(analyzeText(ctx, out, sess, "Speaker 1: hello")).To(Succeed())
		Expect(out.String()).To(ContainSubstring(agent.WaitingSentinel))
	})

	It("prints every surfaced result of a transcript", func() {
		rec := transcription.NewReplay(
			transcription.Event{SpeakerID: "1", Text: "Good morning", Type: transcription.Final},
			transcription.Event{SpeakerID: "2", Text: "I need a new debit card", Type: transcription.Final},
		)
		report, err := analyzeTranscript(ctx, out, sess, rec)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Finals).To(HaveLen(2))
		Expect(out.String()).To(ContainSubstring("Speaker 2: I need a new debit card"))
		Expect(out.String()).To(ContainSubstring(debitNote))
	})

	It("saves the report under the config directory", func() {
		rec := transcription.NewReplay(
			transcription.Event{SpeakerID: "2", Text: "I need a new debit card", Type: transcription.Final},
		)
		report, err := analyzeTranscript(ctx, out, sess, rec)
		Expect(err).NotTo(HaveOccurred())

		dir := GinkgoT().TempDir()
		Expect(saveReport(out, dir, report)).To(Succeed())

		names, err := dotdir.NewManager().ListReports(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(names).To(HaveLen(1))

		var loaded session.Report
		Expect(dotdir.NewManager().LoadReport(dir, names[0], &loaded)).To(Succeed())
		Expect(loaded.SessionID).To(Equal(report.SessionID))
		Expect(loaded.Results).To(HaveLen(1))
	})

	It("names reports after the start time and the session uuid", func() {
		report := &session.Report{
			SessionID: "sess_1a2b3c4d-5e6f-7a8b-9c0d-112233445566",
			StartedAt: time.Date(2026, 1, 2, 9, 30, 0, 0, time.UTC),
		}
		Expect(reportName(report)).To(Equal("20260102-093000-1a2b3c4d"))

		report.SessionID = "abc"
		Expect(reportName(report)).To(Equal("20260102-093000-abc"))
	})

	It("rejects --save without a transcript", func() {
		cmd := NewAnalyzeCmd()
		cmd.SetArgs([]string{"--text", "hi", "--save"})
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		Expect(cmd.Execute()).To(MatchError(ContainSubstring("--save requires --transcript")))
	})
})
