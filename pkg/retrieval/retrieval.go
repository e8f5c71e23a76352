// Package retrieval turns a note search into the observation text the
// reasoning agent reads, dropping notes beyond a distance threshold.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/papercomputeco/advisor/pkg/notes"
)

const (
	DefaultK                   = 3
	DefaultSimilarityThreshold = float32(1.0)

	MinK = 1
	MaxK = notes.MaxResults

	MinThreshold = float32(0.0)
	MaxThreshold = float32(2.0)

	// NoResultText is the observation returned when no note is close enough.
	NoResultText = "No relevant notes found."
)

// Config bounds a retrieval.
type Config struct {
	// K is how many neighbours to request from the store.
	K int

	// SimilarityThreshold is the largest distance a note may have and still
	// count as relevant.
	SimilarityThreshold float32
}

// DefaultConfig returns K=3 with a threshold of 1.0.
func DefaultConfig() Config {
	return Config{K: DefaultK, SimilarityThreshold: DefaultSimilarityThreshold}
}

// Clamped returns c with K in [MinK, MaxK] and the threshold in
// [MinThreshold, MaxThreshold].
func (c Config) Clamped() Config {
	return Config{
		K:                   min(max(c.K, MinK), MaxK),
		SimilarityThreshold: min(max(c.SimilarityThreshold, MinThreshold), MaxThreshold),
	}
}

// Searcher is the part of notes.Store the tool depends on.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]notes.SearchResult, error)
}

// Tool retrieves relevant notes.
type Tool struct {
	store  Searcher
	config Config
}

// NewTool creates a Tool. The config is clamped.
func NewTool(store Searcher, cfg Config) *Tool {
	return &Tool{store: store, config: cfg.Clamped()}
}

// Config returns the effective, clamped configuration.
func (t *Tool) Config() Config {
	return t.config
}

// Result is the outcome of a retrieval. An empty Result is the no-result
// state, which is not an error.
type Result struct {
	Matches []notes.SearchResult
}

// NoResult reports whether no note passed the threshold.
func (r Result) NoResult() bool {
	return len(r.Matches) == 0
}

// Text renders the matches for the agent. It is never empty.
func (r Result) Text() string {
	if r.NoResult() {
		return NoResultText
	}

	entries := make([]string, len(r.Matches))
	for i, m := range r.Matches {
		entries[i] = fmt.Sprintf("Note %d: %s\nDistance: %s", i+1, m.Text, formatDistance(m.Score))
	}
	return strings.Join(entries, "\n\n")
}

func formatDistance(d float32) string {
	return fmt.Sprintf("%.4f", d)
}

// Retrieve searches the store and keeps matches within the threshold.
// Store failures are returned unchanged, so notes.ErrStoreUnavailable
// still matches with errors.Is.
func (t *Tool) Retrieve(ctx context.Context, query string) (Result, error) {
	results, err := t.store.Search(ctx, query, t.config.K)
	if err != nil {
		return Result{}, err
	}
	return Result{Matches: Filter(results, t.config.SimilarityThreshold)}, nil
}

// Filter keeps results whose distance is at most threshold, preserving
// order. Lowering the threshold never yields more results.
func Filter(results []notes.SearchResult, threshold float32) []notes.SearchResult {
	var kept []notes.SearchResult
	for _, r := range results {
		if r.Score <= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}
