package embeddingutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/embeddings/ollama"
	"github.com/papercomputeco/advisor/pkg/embeddings/openai"
	embeddingutils "github.com/papercomputeco/advisor/pkg/embeddings/utils"
)

var _ = Describe("NewEmbedder", func() {
	It("should build an Azure embedder", func() {
		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: embeddingutils.ProviderAzure,
			TargetURL:    "https://example.openai.azure.com",
			APIKey:       "key",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&openai.Embedder{}))
	})

	It("should require an Azure endpoint", func() {
		_, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: embeddingutils.ProviderAzure,
			APIKey:       "key",
		})
		Expect(err).To(MatchError(ContainSubstring("endpoint")))
	})

	It("should build an Ollama embedder", func() {
		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{ProviderType: embeddingutils.ProviderOllama})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&ollama.Embedder{}))
	})

	It("should reject unknown providers", func() {
		_, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{ProviderType: "cohere"})
		Expect(err).To(MatchError(ContainSubstring("unsupported embedding provider")))
	})
})
