package vectorutils

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/vector/sqlitevec"
)

var _ = Describe("NewVectorDriver", func() {
	It("should build a sqlite driver under the persist path", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "db")
		driver, err := NewVectorDriver(context.Background(), &NewVectorDriverOpts{
			ProviderType: ProviderSQLite,
			PersistPath:  dir,
			Dimensions:   4,
			Logger:       logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(driver).To(BeAssignableToTypeOf(&sqlitevec.Driver{}))
		Expect(driver.Close()).To(Succeed())
		Expect(filepath.Join(dir, sqlitevec.DatabaseFile)).To(BeAnExistingFile())
	})

	It("should reject unknown providers", func() {
		_, err := NewVectorDriver(context.Background(), &NewVectorDriverOpts{ProviderType: "faiss", Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("unsupported vector store provider")))
	})
})

var _ = Describe("splitHostPort", func() {
	It("should fall back to the default port", func() {
		host, port, err := splitHostPort("qdrant.local", 6334)
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("qdrant.local"))
		Expect(port).To(Equal(6334))
	})

	It("should parse an explicit port", func() {
		host, port, err := splitHostPort("localhost:7000", 6334)
		Expect(err).NotTo(HaveOccurred())
		Expect(host).To(Equal("localhost"))
		Expect(port).To(Equal(7000))
	})

	It("should require a target", func() {
		_, _, err := splitHostPort("", 6334)
		Expect(err).To(HaveOccurred())
	})
})
