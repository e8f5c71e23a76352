package api

import (
	"bufio"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/papercomputeco/advisor/pkg/sse"
)

// SSE event types of /v1/sessions/:id/events.
const (
	StreamEventTranscript = "transcript"
	StreamEventResult     = "result"
	StreamEventCompleted  = "completed"
)

// streamPollInterval is how often a stream checks its session for new
// results.
var streamPollInterval = 100 * time.Millisecond

// handleSessionEvents streams every recognizer event, interims included, as
// it is heard and every result as it is surfaced, oldest first. One
// completed event carrying the final session state ends the stream.
func (s *Server) handleSessionEvents(c *fiber.Ctx) error {
	id := c.Params("id")
	if _, _, ok := s.lookupSession(id); !ok {
		return errorJSON(c, fiber.StatusNotFound, "session not found")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sent := make(map[string]bool)
		heard := 0
		ticker := time.NewTicker(streamPollInterval)
		defer ticker.Stop()

		for {
			run, resp, _ := s.lookupSession(id)
			done := resp.Status != SessionRunning

			transcript := run.session.Transcript()
			for ; heard < len(transcript); heard++ {
				data, err := json.Marshal(transcript[heard])
				if err != nil {
					s.logger.Error("encoding transcript event", "error", err)
					continue
				}
				if err := sse.Write(w, sse.Event{Type: StreamEventTranscript, Data: string(data)}); err != nil {
					return
				}
			}

			results := run.session.Results()
			for i := len(results) - 1; i >= 0; i-- {
				r := results[i]
				if sent[r.ID] {
					continue
				}
				data, err := json.Marshal(r)
				if err != nil {
					s.logger.Error("encoding result", "error", err)
					continue
				}
				if err := sse.Write(w, sse.Event{ID: r.ID, Type: StreamEventResult, Data: string(data)}); err != nil {
					return
				}
				sent[r.ID] = true
			}

			if done {
				data, err := json.Marshal(resp)
				if err == nil {
					_ = sse.Write(w, sse.Event{Type: StreamEventCompleted, Data: string(data)})
				}
				_ = w.Flush()
				return
			}

			if err := sse.Comment(w, "waiting"); err != nil {
				return
			}
			// A failed flush means the client went away.
			if err := w.Flush(); err != nil {
				return
			}

			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}))

	return nil
}
