package seedcmder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/notes"
	testutils "github.com/papercomputeco/advisor/pkg/utils/test"
)

var _ = Describe("seed command", func() {
	var (
		ctx    context.Context
		driver *testutils.MockVectorDriver
		store  *notes.Store
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		store = notes.NewStore(testutils.NewMockEmbedder(), driver, logger.Nop())
		out = &bytes.Buffer{}
	})

	It("seeds the demo notes without a file", func() {
		c := &seedCommander{}
		toSeed, err := c.loadNotes("")
		Expect(err).NotTo(HaveOccurred())
		Expect(toSeed).To(Equal(notes.DemoNotes()))

		Expect(seed(ctx, out, store, toSeed, false)).To(Succeed())
		Expect(driver.Documents()).To(HaveLen(3))
	})

	It("appends the sample corpus on request", func() {
		c := &seedCommander{sampleCorpus: true}
		toSeed, err := c.loadNotes("")
		Expect(err).NotTo(HaveOccurred())
		Expect(len(toSeed)).To(Equal(3 + len(notes.SampleCorpus())))
	})

	It("parses a notes file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "notes.txt")
		Expect(os.WriteFile(path, []byte("2024-08-15|Card replaced\n\nAsked about mortgages\n"), 0o600)).To(Succeed())

		toSeed, err := (&seedCommander{}).loadNotes(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(toSeed).To(HaveLen(2))
		Expect(toSeed[0].Date()).To(Equal("2024-08-15"))
	})

	It("rejects an empty notes file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "empty.txt")
		Expect(os.WriteFile(path, []byte("\n# nothing\n"), 0o600)).To(Succeed())

		_, err := (&seedCommander{}).loadNotes(path)
		Expect(err).To(MatchError(ContainSubstring("no notes found")))
	})

	It("skips a populated store with --if-empty", func() {
		Expect(seed(ctx, out, store, notes.DemoNotes(), true)).To(Succeed())
		Expect(seed(ctx, out, store, notes.DemoNotes(), true)).To(Succeed())
		Expect(driver.Documents()).To(HaveLen(3))
		Expect(out.String()).To(ContainSubstring("nothing seeded"))
	})

	It("reports an unavailable store", func() {
		driver.Fail = true
		err := seed(ctx, out, store, notes.DemoNotes(), false)
		Expect(err).To(MatchError(notes.ErrStoreUnavailable))
	})

	It("accepts at most one file argument", func() {
		cmd := NewSeedCmd()
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs([]string{"a.txt", "b.txt"})
		Expect(cmd.Execute()).NotTo(Succeed())
	})
})
