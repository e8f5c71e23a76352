package transcription

import (
	"context"
	"errors"
)

// Handlers are the recognizer callbacks. Any of them may be nil.
type Handlers struct {
	Transcribing   func(Event)
	Transcribed    func(Event)
	SessionStarted func()
	SessionStopped func()
	Canceled       func(err error)
}

// Recognizer is a streaming speech recognition session. Start returns once
// recognition is running; events then arrive through the handlers until
// SessionStopped or Canceled.
type Recognizer interface {
	Start(ctx context.Context, h Handlers) error
	Stop() error
}

// Handlers returns the standard wiring of a recognizer into c: interim and
// final events are enqueued, a stopped session sends the sentinel, and a
// cancelled session is logged and then stops the consumer.
func (c *Consumer) Handlers() Handlers {
	enqueue := func(e Event) {
		if err := c.Enqueue(e); err != nil {
			c.logger.Debug("dropping transcription event", "type", e.Type, "error", err)
		}
	}
	return Handlers{
		Transcribing: func(e Event) {
			e.Type = Interim
			enqueue(e)
		},
		Transcribed: func(e Event) {
			e.Type = Final
			enqueue(e)
		},
		SessionStarted: func() {
			c.logger.Info("transcription session started")
		},
		SessionStopped: func() {
			c.logger.Info("transcription session stopped")
			c.Signal()
		},
		Canceled: func(err error) {
			c.logger.Error("transcription canceled", "error", errors.Join(ErrTranscriptionSession, err))
			c.Signal()
		},
	}
}
