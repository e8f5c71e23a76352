// Package mcp exposes note retrieval and transcript analysis as MCP
// (Model Context Protocol) tools.
package mcp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/retrieval"
	"github.com/papercomputeco/advisor/pkg/utils"
)

// Analyzer runs one agent invocation on typed text.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (*agent.Prediction, error)
}

type Config struct {
	// Store is searched by the retrieve_notes tool.
	Store retrieval.Searcher

	// Retrieval holds the default K and distance threshold.
	Retrieval retrieval.Config

	// Analyzer enables the analyze_transcript tool when set.
	Analyzer Analyzer

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the note tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "advisor",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Store == nil {
			return nil, errors.New("note store is required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        retrieveToolName,
			Description: retrieveDescription,
		}, s.handleRetrieve)

		if c.Analyzer != nil {
			mcp.AddTool(mcpServer, &mcp.Tool{
				Name:        analyzeToolName,
				Description: analyzeDescription,
			}, s.handleAnalyze)
		}
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
