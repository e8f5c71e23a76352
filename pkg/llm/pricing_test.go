package llm_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/llm"
)

var _ = Describe("CostForUsage", func() {
	pricing := llm.PricingTable{"gpt-4o": {Input: 2.50, Output: 10.00}}

	It("prices input and output tokens per million", func() {
		cost := llm.CostForUsage(pricing, "gpt-4o", llm.Usage{PromptTokens: 1_000_000, CompletionTokens: 500_000})
		Expect(cost).To(BeNumerically("~", 7.50, 0.0001))
	})

	It("returns zero for unknown models", func() {
		Expect(llm.CostForUsage(pricing, "my-private-deployment", llm.Usage{PromptTokens: 1000})).To(Equal(0.0))
	})

	It("matches dated model names", func() {
		cost := llm.CostForUsage(pricing, "gpt-4o-2024-08-06", llm.Usage{PromptTokens: 1_000_000})
		Expect(cost).To(BeNumerically("~", 2.50, 0.0001))
	})
})

var _ = Describe("PricingForModel", func() {
	It("normalizes anthropic model names", func() {
		price, ok := llm.PricingForModel(llm.DefaultPricing(), "claude-3-5-haiku-20241022")
		Expect(ok).To(BeTrue())
		Expect(price.Input).To(Equal(0.80))

		_, ok = llm.PricingForModel(llm.DefaultPricing(), "claude-3-5-haiku-latest")
		Expect(ok).To(BeTrue())
	})
})

var _ = Describe("LoadPricing", func() {
	It("returns defaults without a path", func() {
		pricing, err := llm.LoadPricing("")
		Expect(err).NotTo(HaveOccurred())
		Expect(pricing).To(HaveKey("gpt-4o"))
	})

	It("overlays entries from a JSON file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "pricing.json")
		Expect(os.WriteFile(path, []byte(`{"advisor-gpt4o": {"input": 2.5, "output": 10}}`), 0o600)).To(Succeed())

		pricing, err := llm.LoadPricing(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(pricing).To(HaveKey("advisor-gpt4o"))
		Expect(pricing).To(HaveKey("gpt-4o-mini"))
	})

	It("fails on malformed files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "pricing.json")
		Expect(os.WriteFile(path, []byte(`not json`), 0o600)).To(Succeed())

		_, err := llm.LoadPricing(path)
		Expect(err).To(MatchError(ContainSubstring("parse pricing file")))
	})
})
