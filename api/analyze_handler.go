package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/advisor/pkg/agent"
)

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// AnalyzeResponse wraps the prediction of a single analysis.
type AnalyzeResponse struct {
	Waiting    bool              `json:"waiting"`
	Prediction *agent.Prediction `json:"prediction"`
}

// handleAnalyze runs one agent invocation on the posted text.
func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	if s.config.NewSession == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, errAnalysisUnavailable.Error())
	}

	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return errorJSON(c, fiber.StatusBadRequest, "text is required")
	}

	sess, err := s.config.NewSession()
	if err != nil {
		s.logger.Error("building session", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	defer sess.Close()

	pred, err := sess.AnalyzeText(c.UserContext(), req.Text)
	if err != nil {
		s.logger.Warn("analysis failed", "session_id", sess.ID(), "error", err)
		return errorJSON(c, fiber.StatusBadGateway, err.Error())
	}

	return c.JSON(AnalyzeResponse{Waiting: pred.Waiting(), Prediction: pred})
}
