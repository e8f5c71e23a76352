package pgvector

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/vector"
)

var _ = Describe("vector literals", func() {
	It("should render embeddings in pgvector text format", func() {
		Expect(vectorLiteral([]float32{0.5, -1, 2.25})).To(Equal("[0.5,-1,2.25]"))
		Expect(vectorLiteral(nil)).To(Equal("[]"))
	})

	It("should parse what it renders", func() {
		v, err := parseVectorLiteral(vectorLiteral([]float32{0.1, 0.2, 0.3}))
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(HaveLen(3))
		Expect(v[1]).To(BeNumerically("~", 0.2, 1e-6))
	})

	It("should reject malformed literals", func() {
		_, err := parseVectorLiteral("0.1,0.2")
		Expect(err).To(HaveOccurred())

		_, err = parseVectorLiteral("[0.1,abc]")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("metadata", func() {
	It("should round trip through JSON", func() {
		s, err := encodeMetadata(map[string]string{"date": "2024-01-15"})
		Expect(err).NotTo(HaveOccurred())
		Expect(decodeMetadata(s)).To(HaveKeyWithValue("date", "2024-01-15"))
	})

	It("should encode empty metadata as an empty object", func() {
		Expect(encodeMetadata(nil)).To(Equal("{}"))
		Expect(decodeMetadata("{}")).To(BeNil())
	})
})

var _ = Describe("Driver", func() {
	It("should implement vector.Driver", func() {
		var _ vector.Driver = (*Driver)(nil)
	})

	It("should require a connection string", func() {
		_, err := NewDriver(context.Background(), Config{Dimensions: 4}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("connection string is required")))
	})

	Context("against a live database", func() {
		var (
			ctx    context.Context
			driver *Driver
		)

		BeforeEach(func() {
			dsn := os.Getenv("ADVISOR_TEST_POSTGRES_DSN")
			if dsn == "" {
				Skip("ADVISOR_TEST_POSTGRES_DSN not set")
			}
			ctx = context.Background()

			var err error
			driver, err = NewDriver(ctx, Config{ConnString: dsn, CollectionName: "advisor_test", Dimensions: 4}, logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(func() {
				_, _ = driver.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+driver.table)
				Expect(driver.Close()).To(Succeed())
			})
		})

		It("should upsert and return the closest note first", func() {
			Expect(driver.Add(ctx, []vector.Document{
				{ID: "card", Text: "debit card", Embedding: []float32{1, 0, 0, 0}},
				{ID: "loan", Text: "mortgage", Embedding: []float32{0, 1, 0, 0}},
			})).To(Succeed())
			Expect(driver.Add(ctx, []vector.Document{
				{ID: "card", Text: "debit card replacement", Embedding: []float32{1, 0, 0, 0}},
			})).To(Succeed())

			Expect(driver.Count(ctx)).To(Equal(2))

			results, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("card"))
			Expect(results[0].Text).To(Equal("debit card replacement"))
			Expect(results[0].Score).To(BeNumerically("~", 0, 1e-4))
			Expect(results[1].Score).To(BeNumerically("~", 1, 1e-4))
		})
	})
})
