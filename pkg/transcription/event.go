// Package transcription drains speech recognition events from a single
// ordered queue, keeps the log of final utterances and hands every event to
// a callback.
package transcription

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTranscriptionSession is reported when the recognizer cancels the
	// session.
	ErrTranscriptionSession = errors.New("transcription session failed")

	// ErrConsumerStopped is returned when enqueueing into a consumer that
	// has processed its stop sentinel or was never started.
	ErrConsumerStopped = errors.New("transcription consumer stopped")
)

// EventType distinguishes partial hypotheses from finished utterances.
type EventType int

const (
	Interim EventType = iota
	Final
)

func (t EventType) String() string {
	switch t {
	case Interim:
		return "interim"
	case Final:
		return "final"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// ParseEventType parses "interim" or "final". An empty string is Final.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "final", "transcribed":
		return Final, nil
	case "interim", "transcribing":
		return Interim, nil
	default:
		return Final, fmt.Errorf("unknown event type %q", s)
	}
}

func (t EventType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(b []byte) error {
	parsed, err := ParseEventType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Event is one recognizer event.
type Event struct {
	Text      string    `json:"text"`
	SpeakerID string    `json:"speaker_id"`
	Type      EventType `json:"type"`
	At        time.Time `json:"at,omitzero"`
}

// Utterance renders a final event as "Speaker {id}: {text}".
func (e Event) Utterance() string {
	return fmt.Sprintf("Speaker %s: %s", e.SpeakerID, e.Text)
}
