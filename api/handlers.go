package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CountResponse is returned by /v1/notes/count.
type CountResponse struct {
	Count int `json:"count"`
}

var errAnalysisUnavailable = errors.New("analysis is not configured: an agent provider is required")

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ErrorResponse{Error: msg})
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleNotesCount returns the number of stored notes.
func (s *Server) handleNotesCount(c *fiber.Ctx) error {
	if s.config.Notes == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "note store is not configured")
	}

	n, err := s.config.Notes.Count(c.UserContext())
	if err != nil {
		s.logger.Error("counting notes", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(CountResponse{Count: n})
}
