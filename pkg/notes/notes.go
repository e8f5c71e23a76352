// Package notes is the similarity store over prior call notes. It pairs an
// embeddings.Embedder with a vector.Driver and exposes nearest-neighbour
// search by cosine distance.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/papercomputeco/advisor/pkg/embeddings"
	"github.com/papercomputeco/advisor/pkg/vector"
)

// ErrStoreUnavailable is returned when the embedder or the backing vector
// store cannot serve a request.
var ErrStoreUnavailable = errors.New("note store unavailable")

// MaxResults caps the k of a Search.
const MaxResults = 10

// MetadataDate is the metadata key carrying the note's call date.
const MetadataDate = "date"

// Note is a free-text record of a previous client call.
type Note struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Date returns the call date recorded with the note, if any.
func (n Note) Date() string {
	return n.Metadata[MetadataDate]
}

// SearchResult is a note paired with its distance to the query.
type SearchResult struct {
	Note

	// Score is the cosine distance to the query; lower is more similar.
	Score float32
}

// Store searches and seeds call notes.
type Store struct {
	embedder embeddings.Embedder
	driver   vector.Driver
	logger   *slog.Logger
}

// NewStore creates a Store. The store owns neither collaborator; Close
// releases both.
func NewStore(embedder embeddings.Embedder, driver vector.Driver, logger *slog.Logger) *Store {
	return &Store{
		embedder: embedder,
		driver:   driver,
		logger:   logger,
	}
}

// Search returns at most k notes nearest to query, in ascending distance.
// A non-positive k returns nothing and k is capped at MaxResults.
func (s *Store) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	k = min(k, MaxResults)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %w", ErrStoreUnavailable, err)
	}

	hits, err := s.driver.Query(ctx, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("%w: querying notes: %w", ErrStoreUnavailable, err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchResult{
			Note: Note{
				ID:       h.ID,
				Text:     h.Text,
				Metadata: h.Metadata,
			},
			Score: h.Score,
		})
	}

	slices.SortStableFunc(results, func(a, b SearchResult) int {
		switch {
		case a.Score < b.Score:
			return -1
		case a.Score > b.Score:
			return 1
		}
		return 0
	})
	if len(results) > k {
		results = results[:k]
	}

	s.logger.Debug("searched notes", "k", k, "results", len(results))

	return results, nil
}

// Upsert embeds and stores notes. Notes without an ID are assigned a UUID.
func (s *Store) Upsert(ctx context.Context, notes []Note) error {
	if len(notes) == 0 {
		return nil
	}

	texts := make([]string, len(notes))
	for i, n := range notes {
		texts[i] = n.Text
	}

	embeddingsOut, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: embedding notes: %w", ErrStoreUnavailable, err)
	}

	docs := make([]vector.Document, len(notes))
	for i, n := range notes {
		id := n.ID
		if id == "" {
			id = uuid.NewString()
		}
		docs[i] = vector.Document{
			ID:        id,
			Text:      n.Text,
			Metadata:  n.Metadata,
			Embedding: embeddingsOut[i],
		}
	}

	if err := s.driver.Add(ctx, docs); err != nil {
		return fmt.Errorf("%w: storing notes: %w", ErrStoreUnavailable, err)
	}

	s.logger.Info("stored notes", "count", len(docs))

	return nil
}

// Count returns the number of stored notes.
func (s *Store) Count(ctx context.Context) (int, error) {
	n, err := s.driver.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: counting notes: %w", ErrStoreUnavailable, err)
	}
	return n, nil
}

// Close releases the embedder and the vector driver.
func (s *Store) Close() error {
	return errors.Join(s.embedder.Close(), s.driver.Close())
}
