package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/advisor/pkg/dispatcher"
	"github.com/papercomputeco/advisor/pkg/session"
	"github.com/papercomputeco/advisor/pkg/transcription"
)

// SessionStatus is the lifecycle state of a replayed session.
type SessionStatus string

const (
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
)

// CreateSessionRequest is the body of POST /v1/sessions. The events are
// replayed through the transcription consumer in order.
type CreateSessionRequest struct {
	Events []transcription.Event `json:"events"`
}

// SessionResponse describes a session.
type SessionResponse struct {
	ID     string          `json:"id"`
	Status SessionStatus   `json:"status"`
	Cost   float64         `json:"cost"`
	Error  string          `json:"error,omitempty"`
	Report *session.Report `json:"report,omitempty"`
}

// ResultsResponse lists session results, newest first.
type ResultsResponse struct {
	ID      string              `json:"id"`
	Results []dispatcher.Result `json:"results"`
	Count   int                 `json:"count"`
}

type sessionRun struct {
	session *session.Session
	status  SessionStatus
	report  *session.Report
	err     string
}

// handleCreateSession starts a background session that replays the posted
// events and returns its id.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	if s.config.NewSession == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, errAnalysisUnavailable.Error())
	}

	var req CreateSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Events) == 0 {
		return errorJSON(c, fiber.StatusBadRequest, "events are required")
	}

	sess, err := s.config.NewSession()
	if err != nil {
		s.logger.Error("building session", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	run := &sessionRun{session: sess, status: SessionRunning}
	s.mu.Lock()
	s.sessions[sess.ID()] = run
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer sess.Close()

		report, err := sess.Run(s.ctx, transcription.NewReplay(req.Events...))

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			run.status = SessionFailed
			run.err = err.Error()
			s.logger.Warn("session failed", "session_id", sess.ID(), "error", err)
			return
		}
		run.status = SessionCompleted
		run.report = report
	}()

	return c.Status(fiber.StatusAccepted).JSON(SessionResponse{
		ID:     sess.ID(),
		Status: SessionRunning,
	})
}

func (s *Server) lookupSession(id string) (*sessionRun, SessionResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.sessions[id]
	if !ok {
		return nil, SessionResponse{}, false
	}
	return run, SessionResponse{
		ID:     id,
		Status: run.status,
		Cost:   run.session.Cost(),
		Error:  run.err,
		Report: run.report,
	}, true
}

// handleGetSession returns the status and, once complete, the report.
func (s *Server) handleGetSession(c *fiber.Ctx) error {
	_, resp, ok := s.lookupSession(c.Params("id"))
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}
	return c.JSON(resp)
}

// handleSessionResults returns the results surfaced so far.
func (s *Server) handleSessionResults(c *fiber.Ctx) error {
	id := c.Params("id")
	run, _, ok := s.lookupSession(id)
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}

	results := run.session.Results()
	return c.JSON(ResultsResponse{
		ID:      id,
		Results: results,
		Count:   len(results),
	})
}
