// Package vector provides the storage contract for note embeddings and the
// drivers that implement it.
package vector

import "context"

// Document is a stored note with its embedding and metadata.
type Document struct {
	// ID is a unique identifier for the document.
	ID string

	// Text is the note body returned to callers.
	Text string

	// Metadata holds optional string attributes such as the note date.
	Metadata map[string]string

	// Embedding is the vector representation of Text.
	Embedding []float32
}

// QueryResult is a search hit.
type QueryResult struct {
	Document

	// Score is the cosine distance to the query (lower = more similar).
	// Drivers whose backend reports a similarity convert it to a distance.
	Score float32
}

// Driver handles storage and retrieval of vector embeddings.
type Driver interface {
	// Add stores documents with their embeddings. A document whose ID
	// already exists is replaced.
	Add(ctx context.Context, docs []Document) error

	// Query returns up to topK documents ordered by ascending distance.
	Query(ctx context.Context, embedding []float32, topK int) ([]QueryResult, error)

	// Get retrieves documents by their IDs.
	Get(ctx context.Context, ids []string) ([]Document, error)

	// Delete removes documents by their IDs.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
