package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	apisearch "github.com/papercomputeco/advisor/api/search"
)

// handleSearchEndpoint handles GET /v1/search requests.
// Query parameters:
//   - query (required): the search query text
//   - k (optional): number of notes to consider, defaults to the configured K
func (s *Server) handleSearchEndpoint(c *fiber.Ctx) error {
	if s.config.Notes == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable,
			"search is not configured: a note store is required")
	}

	query := c.Query("query")
	if query == "" {
		return errorJSON(c, fiber.StatusBadRequest, "query parameter is required")
	}

	k := 0
	if kStr := c.Query("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed <= 0 {
			return errorJSON(c, fiber.StatusBadRequest, "k must be a positive integer")
		}
		k = parsed
	}

	output, err := apisearch.Search(
		c.UserContext(),
		query,
		k,
		s.config.Notes,
		s.config.Retrieval,
		s.logger,
	)
	if err != nil {
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(output)
}
