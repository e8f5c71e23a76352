package qdrant

import (
	"context"

	"github.com/qdrant/go-client/qdrant"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/vector"
)

var _ = Describe("Driver", func() {
	It("should implement vector.Driver", func() {
		var _ vector.Driver = (*Driver)(nil)
	})

	Describe("NewDriver", func() {
		It("should require a host", func() {
			_, err := NewDriver(context.Background(), Config{CollectionName: "notes", Dimensions: 4}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("host is required")))
		})

		It("should require dimensions", func() {
			_, err := NewDriver(context.Background(), Config{Host: "localhost", CollectionName: "notes"}, logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("dimensions")))
		})
	})

	Describe("pointID", func() {
		It("should keep UUID note IDs", func() {
			id := "0b6f1f49-8a36-4c2b-9d1e-6a4a3f5e2c10"
			Expect(pointID(id).GetUuid()).To(Equal(id))
		})

		It("should derive a stable UUID for other IDs", func() {
			first := pointID("note-1").GetUuid()
			Expect(first).NotTo(BeEmpty())
			Expect(pointID("note-1").GetUuid()).To(Equal(first))
			Expect(pointID("note-2").GetUuid()).NotTo(Equal(first))
		})
	})

	Describe("toDistance", func() {
		It("should turn cosine similarity into cosine distance", func() {
			Expect(toDistance(1)).To(BeNumerically("~", 0, 1e-6))
			Expect(toDistance(0)).To(BeNumerically("~", 1, 1e-6))
			Expect(toDistance(-1)).To(BeNumerically("~", 2, 1e-6))
		})
	})

	Describe("documentFromPayload", func() {
		It("should prefer the stored note ID over the point UUID", func() {
			payload := qdrant.NewValueMap(map[string]any{
				payloadID:       "note-1",
				payloadText:     "Client requested a new debit card",
				payloadMetadata: map[string]any{"date": "2024-01-15"},
			})
			doc := documentFromPayload(pointID("note-1"), payload)
			Expect(doc.ID).To(Equal("note-1"))
			Expect(doc.Text).To(Equal("Client requested a new debit card"))
			Expect(doc.Metadata).To(HaveKeyWithValue("date", "2024-01-15"))
		})
	})
})
