// Package api provides the HTTP API for searching call notes and analyzing
// transcripts.
package api

import (
	"context"
	"net/http"

	"github.com/papercomputeco/advisor/pkg/retrieval"
	"github.com/papercomputeco/advisor/pkg/session"
)

// NoteStore is the note store the API searches and counts.
type NoteStore interface {
	retrieval.Searcher
	Count(ctx context.Context) (int, error)
}

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8082")
	ListenAddr string

	// Notes enables /v1/search and /v1/notes/count when set.
	Notes NoteStore

	// Retrieval holds the default K and distance threshold for search.
	Retrieval retrieval.Config

	// NewSession builds a session for /v1/analyze and /v1/sessions.
	// Analysis endpoints answer 503 when it is nil.
	NewSession func() (*session.Session, error)

	// MCP, when set, is mounted at /mcp.
	MCP http.Handler
}
