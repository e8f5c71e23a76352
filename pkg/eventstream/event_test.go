package eventstream_test

import (
	"encoding/json"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/llm"
)

var _ = Describe("Event", func() {
	It("marshals ResultAnalyzedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.NewResultAnalyzedEvent(
			eventstream.EventSource{SessionID: "sess_1", Provider: "azure", Model: "gpt-4o"},
			eventstream.AnalyzedResult{
				ID:                  "r1",
				Utterance:           "Speaker 1: I need a new debit card",
				Status:              "succeeded",
				DispatchedAt:        now.Add(-2 * time.Second),
				CompletedAt:         now,
				Citations:           "Client requested a new debit card, ordered free replacement",
				RelevantInformation: "Card was replaced for free in August.",
				ToolCalls:           1,
				Cost:                0.0012,
				Usage:               llm.Usage{PromptTokens: 400, CompletionTokens: 60, TotalTokens: 460},
			},
		)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKeyWithValue("schema_version", BeNumerically("==", 1)))
		Expect(got).To(HaveKeyWithValue("event_type", eventstream.EventTypeResultAnalyzed))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("result"))
		Expect(got["result"]).To(HaveKeyWithValue("citations", "Client requested a new debit card, ordered free replacement"))
	})

	It("gives every event a distinct id", func() {
		a := eventstream.NewSessionCompletedEvent(eventstream.EventSource{SessionID: "s"})
		b := eventstream.NewSessionCompletedEvent(eventstream.EventSource{SessionID: "s"})
		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(strings.HasPrefix(a.EventID, "evt_")).To(BeTrue())
		Expect(a.EventEnvelope().EventType).To(Equal(eventstream.EventTypeSessionCompleted))
	})

	It("detects nil events", func() {
		var typed *eventstream.ResultAnalyzedEvent
		Expect(eventstream.IsNil(nil)).To(BeTrue())
		Expect(eventstream.IsNil(typed)).To(BeTrue())
		Expect(eventstream.IsNil(&eventstream.ResultAnalyzedEvent{})).To(BeFalse())
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).To(MatchError("nil event"))
	})
})
