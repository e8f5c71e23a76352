package transcription

import (
	"context"
	"sync"
)

// Replay is a Recognizer that emits a fixed list of events and then stops
// the session.
type Replay struct {
	events []Event

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewReplay(events ...Event) *Replay {
	return &Replay{events: events}
}

func (r *Replay) Start(ctx context.Context, h Handlers) error {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if h.SessionStarted != nil {
			h.SessionStarted()
		}
		for _, e := range r.events {
			if ctx.Err() != nil {
				break
			}
			switch {
			case e.Type == Interim && h.Transcribing != nil:
				h.Transcribing(e)
			case e.Type == Final && h.Transcribed != nil:
				h.Transcribed(e)
			}
		}
		if h.SessionStopped != nil {
			h.SessionStopped()
		}
	}()
	return nil
}

func (r *Replay) Stop() error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.wg.Wait()
	return nil
}
