package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
)

// Server is the API server for the advisor.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App

	// ctx bounds background session runs; Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	sessions map[string]*sessionRun
}

// NewServer creates a new API server.
func NewServer(config Config, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:   config,
		logger:   logger,
		app:      app,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*sessionRun),
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/notes/count", s.handleNotesCount)
	app.Get("/v1/search", s.handleSearchEndpoint)
	app.Post("/v1/analyze", s.handleAnalyze)
	app.Post("/v1/sessions", s.handleCreateSession)
	app.Get("/v1/sessions/:id", s.handleGetSession)
	app.Get("/v1/sessions/:id/results", s.handleSessionResults)
	app.Get("/v1/sessions/:id/events", s.handleSessionEvents)

	if config.MCP != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCP))
	}

	return s
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown stops background sessions and gracefully shuts down the API
// server.
func (s *Server) Shutdown() error {
	s.cancel()
	err := s.app.Shutdown()
	s.wg.Wait()
	return err
}
