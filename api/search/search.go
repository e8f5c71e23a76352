// Package search provides the note search shared by the REST endpoint and
// the MCP tool.
package search

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/advisor/pkg/notes"
	"github.com/papercomputeco/advisor/pkg/retrieval"
)

// SearchInput represents the input arguments for a search request.
type SearchInput struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// SearchResult is one note within the distance threshold.
type SearchResult struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Date     string  `json:"date,omitempty"`
	Distance float32 `json:"distance"`
}

// SearchOutput represents the output of a search operation.
type SearchOutput struct {
	Query     string         `json:"query"`
	Results   []SearchResult `json:"results"`
	Count     int            `json:"count"`
	NoResult  bool           `json:"no_result"`
	Text      string         `json:"text"`
	Threshold float32        `json:"threshold"`
}

// Search retrieves notes for query with the tool's threshold. A positive k
// overrides the tool's K, clamped the same way.
func Search(
	ctx context.Context,
	query string,
	k int,
	store retrieval.Searcher,
	cfg retrieval.Config,
	logger *slog.Logger,
) (*SearchOutput, error) {
	if k > 0 {
		cfg.K = k
	}
	tool := retrieval.NewTool(store, cfg)

	logger.Debug("search request",
		"query", query,
		"k", tool.Config().K,
		"threshold", tool.Config().SimilarityThreshold,
	)

	res, err := tool.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(res.Matches))
	for _, m := range res.Matches {
		results = append(results, BuildSearchResult(m))
	}

	return &SearchOutput{
		Query:     query,
		Results:   results,
		Count:     len(results),
		NoResult:  res.NoResult(),
		Text:      res.Text(),
		Threshold: tool.Config().SimilarityThreshold,
	}, nil
}

// BuildSearchResult converts a store match into a SearchResult.
func BuildSearchResult(m notes.SearchResult) SearchResult {
	return SearchResult{
		ID:       m.ID,
		Text:     m.Text,
		Date:     m.Date(),
		Distance: m.Score,
	}
}
