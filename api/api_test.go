package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/api"
	apisearch "github.com/papercomputeco/advisor/api/search"
	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/dispatcher"
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/notes"
	"github.com/papercomputeco/advisor/pkg/retrieval"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/sse"
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

func do(server *api.Server, method, path, body string) (int, []byte) {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := server.App().Test(req, -1)
	Expect(err).NotTo(HaveOccurred())
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	return resp.StatusCode, b
}

var _ = Describe("Server", func() {
	var (
		store  *notes.Store
		driver *testutils.MockVectorDriver
		server *api.Server
	)

	BeforeEach(func() {
		ctx := context.Background()
		embedder := testutils.NewMockEmbedder()
		embedder.Embeddings[debitNote] = []float32{1, 0, 0}
		embedder.Embeddings["debit card"] = []float32{1, 0, 0}
		driver = testutils.NewMockVectorDriver()
		store = notes.NewStore(embedder, driver, logger.Nop())
		Expect(store.Upsert(ctx, []notes.Note{{ID: "n1", Text: debitNote}})).To(Succeed())

		client := cardLLM()
		tool := retrieval.NewTool(store, retrieval.DefaultConfig())
		server = api.NewServer(api.Config{
			Notes:     store,
			Retrieval: retrieval.DefaultConfig(),
			NewSession: func() (*session.Session, error) {
				return session.New(&session.Config{
					Runner: func() (dispatcher.Runner, error) {
						return agent.New(client, agent.StandardTools(tool, nil, "")), nil
					},
				})
			},
		}, logger.Nop())
	})

	AfterEach(func() {
		Expect(server.Shutdown()).To(Succeed())
	})

	It("answers ping", func() {
		status, body := do(server, http.MethodGet, "/ping", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(string(body)).To(Equal(`"pong"`))
	})

	It("counts notes", func() {
		status, body := do(server, http.MethodGet, "/v1/notes/count", "")
		Expect(status).To(Equal(http.StatusOK))
		Expect(string(body)).To(MatchJSON(`{"count":1}`))
	})

	Describe("GET /v1/search", func() {
		It("returns matching notes", func() {
			status, body := do(server, http.MethodGet, "/v1/search?query=debit+card", "")
			Expect(status).To(Equal(http.StatusOK))

			var out apisearch.SearchOutput
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Count).To(Equal(1))
			Expect(out.Results[0].ID).To(Equal("n1"))
		})

		It("requires a query", func() {
			status, body := do(server, http.MethodGet, "/v1/search", "")
			Expect(status).To(Equal(http.StatusBadRequest))
			Expect(string(body)).To(ContainSubstring("query parameter is required"))
		})

		It("rejects a bad k", func() {
			status, _ := do(server, http.MethodGet, "/v1/search?query=x&k=-2", "")
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("reports store failures", func() {
			driver.Fail = true
			status, _ := do(server, http.MethodGet, "/v1/search?query=debit+card", "")
			Expect(status).To(Equal(http.StatusInternalServerError))
		})

		It("is unavailable without a note store", func() {
			bare := api.NewServer(api.Config{}, logger.Nop())
			defer bare.Shutdown()
			status, _ := do(bare, http.MethodGet, "/v1/search?query=x", "")
			Expect(status).To(Equal(http.StatusServiceUnavailable))
			status, _ = do(bare, http.MethodPost, "/v1/analyze", `{"text":"x"}`)
			Expect(status).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("POST /v1/analyze", func() {
		It("returns the prediction", func() {
			status, body := do(server, http.MethodPost, "/v1/analyze", `{"text":"Speaker 2: my debit card is broken"}`)
			Expect(status).To(Equal(http.StatusOK))

			var out api.AnalyzeResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Waiting).To(BeFalse())
			Expect(out.Prediction.Citations).To(Equal(debitNote))
		})

		It("reports waiting on small talk", func() {
			status, body := do(server, http.MethodPost, "/v1/analyze", `{"text":"Speaker 1: hello"}`)
			Expect(status).To(Equal(http.StatusOK))

			var out api.AnalyzeResponse
			Expect(json.Unmarshal(body, &out)).To(Succeed())
			Expect(out.Waiting).To(BeTrue())
			Expect(out.Prediction.Citations).To(Equal(agent.NoCitations))
		})

		It("requires text", func() {
			status, _ := do(server, http.MethodPost, "/v1/analyze", `{"text":"  "}`)
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("sessions", func() {
		It("replays events in the background", func() {
			status, body := do(server, http.MethodPost, "/v1/sessions", `{"events":[
				{"speaker_id":"1","text":"Good morning","type":"final"},
				{"speaker_id":"2","text":"I need a new","type":"interim"},
				{"speaker_id":"2","text":"I need a new debit card","type":"final"}
			]}`)
			Expect(status).To(Equal(http.StatusAccepted))

			var created api.SessionResponse
			Expect(json.Unmarshal(body, &created)).To(Succeed())
			Expect(created.ID).To(HavePrefix("sess_"))
			Expect(created.Status).To(Equal(api.SessionRunning))

			var got api.SessionResponse
			Eventually(func() api.SessionStatus {
				_, body := do(server, http.MethodGet, "/v1/sessions/"+created.ID, "")
				Expect(json.Unmarshal(body, &got)).To(Succeed())
				return got.Status
			}, 5*time.Second, 20*time.Millisecond).Should(Equal(api.SessionCompleted))

			Expect(got.Report).NotTo(BeNil())
			Expect(got.Report.Finals).To(HaveLen(2))
			Expect(got.Report.Results).To(HaveLen(1))
			Expect(got.Cost).To(BeNumerically(">", 0))

			status, body = do(server, http.MethodGet, "/v1/sessions/"+created.ID+"/results", "")
			Expect(status).To(Equal(http.StatusOK))
			var results api.ResultsResponse
			Expect(json.Unmarshal(body, &results)).To(Succeed())
			Expect(results.Count).To(Equal(1))
			Expect(results.Results[0].Utterance).To(Equal("Speaker 2: I need a new debit card"))
		})

		It("streams the live transcript, results and completion as server-sent events", func() {
			_, body := do(server, http.MethodPost, "/v1/sessions", `{"events":[
				{"speaker_id":"2","text":"My debit","type":"interim"},
				{"speaker_id":"2","text":"My debit card is broken","type":"final"}
			]}`)
			var created api.SessionResponse
			Expect(json.Unmarshal(body, &created)).To(Succeed())

			status, stream := do(server, http.MethodGet, "/v1/sessions/"+created.ID+"/events", "")
			Expect(status).To(Equal(http.StatusOK))

			var events []*sse.Event
			r := sse.NewReader(bytes.NewReader(stream))
			for {
				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				if ev == nil {
					break
				}
				events = append(events, ev)
			}

			Expect(events).To(HaveLen(4))

			var heard transcription.Event
			Expect(events[0].Type).To(Equal(api.StreamEventTranscript))
			Expect(json.Unmarshal([]byte(events[0].Data), &heard)).To(Succeed())
			Expect(heard.Type).To(Equal(transcription.Interim))
			Expect(heard.Text).To(Equal("My debit"))

			Expect(events[1].Type).To(Equal(api.StreamEventTranscript))
			Expect(json.Unmarshal([]byte(events[1].Data), &heard)).To(Succeed())
			Expect(heard.Type).To(Equal(transcription.Final))

			Expect(events[2].Type).To(Equal(api.StreamEventResult))
			Expect(events[2].Data).To(ContainSubstring(debitNote))
			Expect(events[3].Type).To(Equal(api.StreamEventCompleted))

			var done api.SessionResponse
			Expect(json.Unmarshal([]byte(events[3].Data), &done)).To(Succeed())
			Expect(done.Status).To(Equal(api.SessionCompleted))
		})

		It("rejects an empty session", func() {
			status, _ := do(server, http.MethodPost, "/v1/sessions", `{"events":[]}`)
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("rejects unknown event types", func() {
			status, _ := do(server, http.MethodPost, "/v1/sessions", `{"events":[{"speaker_id":"1","text":"x","type":"partial"}]}`)
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for unknown sessions", func() {
			status, _ := do(server, http.MethodGet, "/v1/sessions/sess_missing", "")
			Expect(status).To(Equal(http.StatusNotFound))
			status, _ = do(server, http.MethodGet, "/v1/sessions/sess_missing/results", "")
			Expect(status).To(Equal(http.StatusNotFound))
			status, _ = do(server, http.MethodGet, "/v1/sessions/sess_missing/events", "")
			Expect(status).To(Equal(http.StatusNotFound))
		})
	})
})
