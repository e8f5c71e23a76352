// Package servecmder provides the serve command, which runs the HTTP API and
// the MCP endpoint.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/advisor/api"
	"github.com/papercomputeco/advisor/api/mcp"
	"github.com/papercomputeco/advisor/cmd/advisor/wiring"
	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/session"
)

type serveCommander struct {
	logFile string

	flagKeys []string
}

const serveLongDesc string = `Run the advisor API server.

Routes:
  GET  /ping                       Health check
  GET  /v1/notes/count             Number of stored notes
  GET  /v1/search?query=&k=        Search notes within the threshold
  POST /v1/analyze                 Analyze {"text": "..."} once
  POST /v1/sessions                Replay {"events": [...]} as a call
  GET  /v1/sessions/:id            Session status and report
  GET  /v1/sessions/:id/results    Results surfaced so far
  GET  /v1/sessions/:id/events     Server-sent stream of results
  *    /mcp                        MCP tools retrieve_notes, analyze_transcript

When the chat provider cannot be configured the server still serves search
and answers analysis requests with 503.

Examples:
  advisor serve
  advisor serve --listen :9000 --events-provider kafka`

const serveShortDesc string = "Run the API server"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write logs to this file")

	cmder.flagKeys = append(wiring.AddStoreFlags(cmd), wiring.AddAgentFlags(cmd)...)
	cmder.flagKeys = append(cmder.flagKeys, wiring.AddListenFlag(cmd)...)

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	cfg, err := wiring.LoadConfig(cmd, c.flagKeys)
	if err != nil {
		return err
	}

	log, closeLog, err := c.newLogger(cmd)
	if err != nil {
		return err
	}
	defer closeLog()

	deps, err := wiring.NewStore(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	apiServer, err := newAPIServer(cfg, deps, log)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	// Wait for interrupt signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		return apiServer.Shutdown()
	}
}

func (c *serveCommander) newLogger(cmd *cobra.Command) (*slog.Logger, func(), error) {
	l := wiring.NewServiceLogger(cmd)
	if c.logFile == "" {
		return l, func() {}, nil
	}

	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	debug, _ := cmd.Flags().GetBool("debug")
	fileLogger := logger.New(logger.WithDebug(debug), logger.WithJSON(true), logger.WithWriter(f))
	return logger.Multi(l, fileLogger), func() { _ = f.Close() }, nil
}

// newAPIServer wires the note store, the agent and MCP into the API.
func newAPIServer(cfg *config.Config, deps *wiring.Deps, log *slog.Logger) (*api.Server, error) {
	apiConfig := api.Config{
		ListenAddr: cfg.API.Listen,
		Notes:      deps.Store,
		Retrieval:  deps.Retrieval,
	}

	mcpConfig := mcp.Config{
		Store:     deps.Store,
		Retrieval: deps.Retrieval,
		Logger:    log,
	}

	if err := deps.EnableAgent(); err != nil {
		log.Warn("analysis disabled", "error", err)
	} else {
		apiConfig.NewSession = deps.NewSession
		mcpConfig.Analyzer = sessionAnalyzer{newSession: deps.NewSession}
	}

	mcpServer, err := mcp.NewServer(mcpConfig)
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}
	apiConfig.MCP = mcpServer.Handler()

	return api.NewServer(apiConfig, log), nil
}

// sessionAnalyzer runs each MCP analysis in a fresh session.
type sessionAnalyzer struct {
	newSession func() (*session.Session, error)
}

func (a sessionAnalyzer) AnalyzeText(ctx context.Context, text string) (*agent.Prediction, error) {
	sess, err := a.newSession()
	if err != nil {
		return nil, err
	}
	defer sess.Close()
	return sess.AnalyzeText(ctx, text)
}
