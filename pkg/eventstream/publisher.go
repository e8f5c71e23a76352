package eventstream

import "context"

// Publisher publishes advisor events to an event stream backend.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// IsNil reports whether event is nil, including a typed nil pointer.
func IsNil(event Event) bool {
	switch e := event.(type) {
	case nil:
		return true
	case *ResultAnalyzedEvent:
		return e == nil
	case *SessionCompletedEvent:
		return e == nil
	case *Envelope:
		return e == nil
	}
	return false
}
