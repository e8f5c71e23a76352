package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider/openai"
)

var _ = Describe("Client", func() {
	var (
		server  *httptest.Server
		status  int
		path    string
		apiKey  string
		payload map[string]any
	)

	BeforeEach(func() {
		status = http.StatusOK
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			apiKey = r.Header.Get("api-key")
			payload = map[string]any{}
			_ = json.NewDecoder(r.Body).Decode(&payload)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			if status != http.StatusOK {
				_, _ = w.Write([]byte(`{"error":{"message":"denied","type":"invalid_request_error"}}`))
				return
			}
			_, _ = w.Write([]byte(`{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"created": 1700000000,
				"model": "gpt-4o-2024-08-06",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"tool\":\"finish\"}"}, "finish_reason": "stop"}],
				"usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
			}`))
		}))
		DeferCleanup(server.Close)
	})

	It("requires an API key", func() {
		_, err := openai.New(openai.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("maps the response and usage", func() {
		c, err := openai.New(openai.Config{APIKey: "sk", BaseURL: server.URL + "/v1"})
		Expect(err).NotTo(HaveOccurred())

		resp, err := c.Complete(context.Background(), &llm.ChatRequest{
			Messages:    []llm.Message{llm.SystemMessage("sys"), llm.UserMessage("hi")},
			Temperature: llm.Float64(0),
			JSONMode:    true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/v1/chat/completions"))
		Expect(payload["model"]).To(Equal(openai.DefaultModel))
		Expect(payload["response_format"]).To(HaveKeyWithValue("type", "json_object"))
		Expect(payload["messages"]).To(HaveLen(2))

		Expect(resp.Model).To(Equal("gpt-4o-2024-08-06"))
		Expect(resp.Message.Role).To(Equal(llm.RoleAssistant))
		Expect(resp.Message.Content).To(Equal(`{"tool":"finish"}`))
		Expect(resp.StopReason).To(Equal("stop"))
		Expect(resp.Usage).To(Equal(llm.Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150}))
	})

	It("addresses the Azure deployment named by the request", func() {
		c, err := openai.New(openai.Config{APIKey: "azure-key", AzureEndpoint: server.URL, Model: "advisor-gpt4o"})
		Expect(err).NotTo(HaveOccurred())

		_, err = c.Complete(context.Background(), &llm.ChatRequest{Messages: []llm.Message{llm.UserMessage("hi")}})
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/openai/deployments/advisor-gpt4o/chat/completions"))
		Expect(apiKey).To(Equal("azure-key"))
	})

	It("maps 401 to ErrUnauthorized", func() {
		status = http.StatusUnauthorized
		c, _ := openai.New(openai.Config{APIKey: "sk", BaseURL: server.URL + "/v1"})

		_, err := c.Complete(context.Background(), &llm.ChatRequest{})
		Expect(errors.Is(err, llm.ErrUnauthorized)).To(BeTrue())
	})

	It("maps 429 to ErrRateLimited", func() {
		status = http.StatusTooManyRequests
		c, _ := openai.New(openai.Config{APIKey: "sk", BaseURL: server.URL + "/v1"})

		_, err := c.Complete(context.Background(), &llm.ChatRequest{})
		Expect(errors.Is(err, llm.ErrRateLimited)).To(BeTrue())
	})
})
