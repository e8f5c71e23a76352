package agent_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/notes"
	"github.com/papercomputeco/advisor/pkg/retrieval"
	testutils "github.com/papercomputeco/advisor/pkg/utils/test"
)

const debitNote = "Client requested a new debit card, ordered free replacement"

func actionJSON(thought, tool string, args map[string]any) string {
	b, err := json.Marshal(map[string]any{"thought": thought, "tool": tool, "args": args})
	Expect(err).NotTo(HaveOccurred())
	return string(b)
}

func finishJSON(citations, info, reasoning string) string {
	return actionJSON("done", agent.FinishTool, map[string]any{
		"citations":            citations,
		"relevant_information": info,
		"reasoning":            reasoning,
	})
}

func lastMessage(req *llm.ChatRequest) string {
	return req.Messages[len(req.Messages)-1].Content
}

// wordCounter counts whitespace separated words.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

var noteLine = regexp.MustCompile(`Note 1: (.*)\nDistance: ([0-9.]+)`)

var _ = Describe("Agent", func() {
	var (
		ctx      context.Context
		embedder *testutils.MockEmbedder
		driver   *testutils.MockVectorDriver
		store    *notes.Store
		tool     *retrieval.Tool
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedder = testutils.NewMockEmbedder()
		driver = testutils.NewMockVectorDriver()
		store = notes.NewStore(embedder, driver, logger.Nop())
		tool = retrieval.NewTool(store, retrieval.Config{K: 3, SimilarityThreshold: 1.0})
	})

	Describe("debit card replacement", func() {
		BeforeEach(func() {
			embedder.Embeddings[debitNote] = []float32{1, 0, 0}
			embedder.Embeddings["new debit card"] = []float32{1, 0, 0}
			Expect(store.Upsert(ctx, []notes.Note{{Text: debitNote}})).To(Succeed())
		})

		It("retrieves the note and cites it verbatim", func() {
			var observed string
			client := testutils.NewMockLLM()
			client.Respond = func(req *llm.ChatRequest) (string, error) {
				last := lastMessage(req)
				if !strings.HasPrefix(last, "Observation: ") {
					return actionJSON("The client wants a new debit card.", agent.RetrieveNotesTool,
						map[string]any{"query": "new debit card"}), nil
				}
				observed = last
				m := noteLine.FindStringSubmatch(last)
				if m == nil {
					return finishJSON("", "", "nothing found"), nil
				}
				return finishJSON(m[1], "The client had a defective debit card replaced for free.", "matched a prior note"), nil
			}

			a := agent.New(client, agent.StandardTools(tool, nil, ""))
			pred, err := a.Run(ctx, "Customer: I need a new debit card")
			Expect(err).NotTo(HaveOccurred())

			Expect(observed).To(ContainSubstring("Distance: 0.0000"))
			Expect(pred.Waiting()).To(BeFalse())
			Expect(pred.Citations).To(ContainSubstring(debitNote))
			Expect(pred.RelevantInformation).To(ContainSubstring("debit card"))
			Expect(pred.ToolCallsOf(agent.RetrieveNotesTool)).To(Equal(1))
			Expect(pred.Trajectory).To(HaveLen(2))
			Expect(pred.Trajectory[0].Args).To(HaveKeyWithValue("query", "new debit card"))
			Expect(pred.Trajectory[1].Tool).To(Equal(agent.FinishTool))
		})

		It("prices every completion of the run", func() {
			client := testutils.NewMockLLM(
				actionJSON("search", agent.RetrieveNotesTool, map[string]any{"query": "new debit card"}),
				finishJSON(debitNote, "Debit card replaced.", "match"),
			)
			history := llm.NewHistory(nil, 0)
			a := agent.New(client, agent.StandardTools(tool, nil, ""), agent.WithHistory(history))

			pred, err := a.Run(ctx, "Customer: I need a new debit card")
			Expect(err).NotTo(HaveOccurred())

			perCall := llm.CostForUsage(llm.DefaultPricing(), "gpt-4o", client.Usage)
			Expect(perCall).To(BeNumerically(">", 0))
			Expect(pred.Calls).To(Equal(2))
			Expect(pred.Cost).To(BeNumerically("~", 2*perCall, 1e-12))
			Expect(pred.Usage.TotalTokens).To(Equal(240))
			Expect(history.TotalCost()).To(BeNumerically("~", pred.Cost, 1e-12))
			Expect(history.Last(0)).To(HaveLen(2))
		})
	})

	Describe("ambiguous input", func() {
		It("finishes without searching and reports waiting", func() {
			client := testutils.NewMockLLM(finishJSON("", "", "Greeting only, intent unclear."))
			a := agent.New(client, agent.StandardTools(tool, nil, ""))

			pred, err := a.Run(ctx, "Customer: Hello, good morning")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.RelevantInformation).To(Equal(agent.WaitingSentinel))
			Expect(pred.Citations).To(Equal("None"))
			Expect(pred.Waiting()).To(BeTrue())
			Expect(pred.ToolCalls()).To(BeZero())
			Expect(driver.Queries).To(BeZero())
		})

		It("normalises a lower-case sentinel", func() {
			client := testutils.NewMockLLM(finishJSON("something", "waiting for more information.", ""))
			pred, err := agent.New(client, nil).Run(ctx, "Customer: Hi")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Waiting()).To(BeTrue())
			Expect(pred.Citations).To(Equal(agent.NoCitations))
		})
	})

	Describe("error handling", func() {
		It("turns an unknown tool into an observation", func() {
			client := testutils.NewMockLLM(
				actionJSON("try", "lookup_account", map[string]any{"id": "1"}),
				finishJSON("", agent.WaitingSentinel, ""),
			)
			pred, err := agent.New(client, agent.StandardTools(tool, nil, "")).Run(ctx, "Customer: balance?")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Trajectory[0].Observation).To(ContainSubstring(`Unknown tool "lookup_account"`))
			Expect(pred.Trajectory[0].Observation).To(ContainSubstring(agent.RetrieveNotesTool))
		})

		It("turns missing arguments into an observation", func() {
			client := testutils.NewMockLLM(
				actionJSON("search", agent.RetrieveNotesTool, map[string]any{}),
				finishJSON("", agent.WaitingSentinel, ""),
			)
			pred, err := agent.New(client, agent.StandardTools(tool, nil, "")).Run(ctx, "Customer: card")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Trajectory[0].Observation).To(Equal("Execution of retrieve_notes failed: missing required argument(s) query"))
			Expect(driver.Queries).To(BeZero())
		})

		It("feeds tool failures back to the model", func() {
			failing := agent.NewFuncTool(agent.Spec{Name: "lookup"}, func(context.Context, map[string]any) (string, error) {
				return "", errors.New("backend timeout")
			})
			client := testutils.NewMockLLM(
				actionJSON("look", "lookup", nil),
				finishJSON("", agent.WaitingSentinel, ""),
			)
			pred, err := agent.New(client, agent.NewRegistry(failing)).Run(ctx, "Customer: card")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Trajectory[0].Observation).To(Equal("Execution of lookup failed: backend timeout"))
			Expect(lastMessage(client.Requests()[1])).To(Equal("Observation: Execution of lookup failed: backend timeout"))
		})

		It("retries an unparsable reply within the budget", func() {
			client := testutils.NewMockLLM(
				"I think the client wants a card.",
				finishJSON("", agent.WaitingSentinel, ""),
			)
			pred, err := agent.New(client, nil).Run(ctx, "Customer: card")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Trajectory).To(HaveLen(2))
			Expect(pred.Trajectory[0].Observation).To(ContainSubstring("not a valid action"))
		})

		It("accepts a fenced JSON reply", func() {
			client := testutils.NewMockLLM("```json\n" + finishJSON(debitNote, "Card replaced.", "") + "\n```")
			pred, err := agent.New(client, nil).Run(ctx, "Customer: card")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Citations).To(Equal(debitNote))
		})

		It("wraps provider failures", func() {
			client := testutils.NewMockLLM()
			client.Err = llm.ErrRateLimited
			_, err := agent.New(client, nil).Run(ctx, "Customer: card")
			Expect(errors.Is(err, agent.ErrAgentInvocationFailed)).To(BeTrue())
			Expect(errors.Is(err, llm.ErrRateLimited)).To(BeTrue())
		})

		It("aborts when the note store is unavailable", func() {
			driver.Fail = true
			client := testutils.NewMockLLM(
				actionJSON("search", agent.RetrieveNotesTool, map[string]any{"query": "card"}),
				finishJSON("", agent.WaitingSentinel, ""),
			)
			_, err := agent.New(client, agent.StandardTools(tool, nil, "")).Run(ctx, "Customer: card")
			Expect(errors.Is(err, agent.ErrAgentInvocationFailed)).To(BeTrue())
			Expect(errors.Is(err, notes.ErrStoreUnavailable)).To(BeTrue())
			Expect(client.Calls()).To(Equal(1))
		})

		It("fails when the run times out", func() {
			client := testutils.NewMockLLM()
			client.Respond = func(*llm.ChatRequest) (string, error) {
				time.Sleep(20 * time.Millisecond)
				return actionJSON("search", agent.RetrieveNotesTool, map[string]any{"query": "card"}), nil
			}
			a := agent.New(client, agent.StandardTools(tool, nil, ""), agent.WithTimeout(5*time.Millisecond), agent.WithMaxSteps(10))
			_, err := a.Run(ctx, "Customer: card")
			Expect(errors.Is(err, agent.ErrAgentInvocationFailed)).To(BeTrue())
		})
	})

	Describe("step budget", func() {
		It("forces a finish after the last step", func() {
			search := actionJSON("search", agent.RetrieveNotesTool, map[string]any{"query": "card"})
			client := testutils.NewMockLLM(search, search,
				`{"citations": "None", "relevant_information": "Waiting for more information", "reasoning": "budget"}`)
			pred, err := agent.New(client, agent.StandardTools(tool, nil, ""), agent.WithMaxSteps(2)).Run(ctx, "Customer: card")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Forced).To(BeTrue())
			Expect(pred.Waiting()).To(BeTrue())
			Expect(pred.Reasoning).To(Equal("budget"))
			Expect(pred.ToolCalls()).To(Equal(2))
			Expect(client.Calls()).To(Equal(3))
			Expect(lastMessage(client.Requests()[2])).To(ContainSubstring("used every available step"))
		})

		It("defaults to six steps", func() {
			Expect(agent.New(testutils.NewMockLLM(), nil).MaxSteps()).To(Equal(agent.DefaultMaxSteps))
			Expect(agent.New(testutils.NewMockLLM(), nil, agent.WithMaxSteps(0)).MaxSteps()).To(Equal(6))
		})
	})

	Describe("summarize_notes", func() {
		It("counts the summary call in the run cost", func() {
			client := testutils.NewMockLLM(
				actionJSON("summarize", agent.SummarizeNotesTool, map[string]any{"relevant_notes": debitNote}),
				"- Debit card replaced for free",
				finishJSON(debitNote, "Debit card replaced for free.", ""),
			)
			a := agent.New(client, agent.StandardTools(tool, client, "gpt-4o"))
			pred, err := a.Run(ctx, "Customer: my card again")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Trajectory[0].Observation).To(Equal("- Debit card replaced for free"))
			Expect(pred.Calls).To(Equal(3))
		})

		It("aborts the run when the summary model rejects the credentials", func() {
			client := testutils.NewMockLLM(
				actionJSON("summarize", agent.SummarizeNotesTool, map[string]any{"relevant_notes": debitNote}),
				finishJSON(debitNote, "should not be reached", ""),
			)
			summarizer := testutils.NewMockLLM()
			summarizer.Err = llm.ErrUnauthorized

			_, err := agent.New(client, agent.StandardTools(tool, summarizer, "gpt-4o")).Run(ctx, "Customer: my card again")
			Expect(errors.Is(err, agent.ErrAgentInvocationFailed)).To(BeTrue())
			Expect(errors.Is(err, llm.ErrUnauthorized)).To(BeTrue())
			Expect(client.Requests()).To(HaveLen(1))
		})

		It("feeds other summary failures back to the model", func() {
			client := testutils.NewMockLLM(
				actionJSON("summarize", agent.SummarizeNotesTool, map[string]any{"relevant_notes": debitNote}),
				finishJSON(debitNote, "Debit card replaced for free.", ""),
			)
			summarizer := testutils.NewMockLLM()
			summarizer.Err = errors.New("connection reset")

			pred, err := agent.New(client, agent.StandardTools(tool, summarizer, "gpt-4o")).Run(ctx, "Customer: my card again")
			Expect(err).NotTo(HaveOccurred())
			Expect(pred.Trajectory[0].Observation).To(ContainSubstring("connection reset"))
		})
	})

	Describe("memory", func() {
		It("includes earlier utterances in the prompt", func() {
			mem := agent.NewMemory(2)
			mem.Add("Speaker 1: Good morning")
			mem.Add("Speaker 2: It is about my card")
			mem.Add("Speaker 2: It was stolen")

			client := testutils.NewMockLLM(finishJSON("", agent.WaitingSentinel, ""))
			_, err := agent.New(client, nil, agent.WithMemory(mem)).Run(ctx, "Speaker 2: It was stolen")
			Expect(err).NotTo(HaveOccurred())

			prompt := client.Requests()[0].Messages[1].Content
			Expect(prompt).To(ContainSubstring("Earlier in the call:\nSpeaker 2: It is about my card\n"))
			Expect(prompt).NotTo(ContainSubstring("Good morning"))
			Expect(prompt).To(HaveSuffix("Recent utterances:\nSpeaker 2: It was stolen"))
		})

		It("drops the oldest utterances beyond the token budget", func() {
			mem := agent.NewMemory(5)
			mem.Add("Speaker 1: Good morning to you")
			mem.Add("Speaker 2: It is about my card")
			mem.Add("Speaker 2: It was stolen")

			client := testutils.NewMockLLM(finishJSON("", agent.WaitingSentinel, ""))
			a := agent.New(client, nil, agent.WithMemory(mem), agent.WithContextBudget(wordCounter{}, 8))
			_, err := a.Run(ctx, "Speaker 2: It was stolen")
			Expect(err).NotTo(HaveOccurred())

			prompt := client.Requests()[0].Messages[1].Content
			Expect(prompt).To(ContainSubstring("Speaker 2: It is about my card"))
			Expect(prompt).NotTo(ContainSubstring("Good morning"))
		})

		It("keeps memory unbounded without a counter", func() {
			mem := agent.NewMemory(5)
			mem.Add("Speaker 1: Good morning to you")
			mem.Add("Speaker 2: It was stolen")

			client := testutils.NewMockLLM(finishJSON("", agent.WaitingSentinel, ""))
			_, err := agent.New(client, nil, agent.WithMemory(mem), agent.WithContextBudget(nil, 1)).Run(ctx, "Speaker 2: It was stolen")
			Expect(err).NotTo(HaveOccurred())
			Expect(client.Requests()[0].Messages[1].Content).To(ContainSubstring("Good morning"))
		})

		It("remembers nothing with zero turns", func() {
			mem := agent.NewMemory(0)
			mem.Add("Speaker 1: hi")
			Expect(mem.Recent("")).To(BeEmpty())
		})
	})
})

var _ = Describe("Registry", func() {
	It("keeps registration order and compiles specs into the system prompt", func() {
		reg := agent.NewRegistry(
			agent.NewFuncTool(agent.Spec{Name: "b_tool", Description: "second", Args: []agent.Arg{{Name: "x", Type: "string", Required: true}}}, nil),
			agent.NewFuncTool(agent.Spec{Name: "a_tool", Description: "first"}, nil),
		)
		Expect(reg.Names()).To(Equal([]string{"b_tool", "a_tool"}))

		prompt := agent.New(testutils.NewMockLLM(), reg).SystemPrompt()
		Expect(prompt).To(ContainSubstring("1. b_tool: second"))
		Expect(prompt).To(ContainSubstring("- x (string, required)"))
		Expect(prompt).To(ContainSubstring("2. a_tool: first"))
		Expect(prompt).To(ContainSubstring("3. finish:"))
	})

	It("rejects duplicate and reserved names", func() {
		reg := agent.NewRegistry()
		Expect(reg.Register(agent.NewFuncTool(agent.Spec{Name: "x"}, nil))).To(Succeed())
		Expect(reg.Register(agent.NewFuncTool(agent.Spec{Name: "x"}, nil))).NotTo(Succeed())
		Expect(reg.Register(agent.NewFuncTool(agent.Spec{Name: agent.FinishTool}, nil))).NotTo(Succeed())
	})
})
