package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/advisor/pkg/llm"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeResultAnalyzed is emitted for every surfaced or failed
	// analysis of an utterance.
	EventTypeResultAnalyzed = "advisor.result.analyzed"

	// EventTypeSessionCompleted is emitted once a session's analysis is
	// complete.
	EventTypeSessionCompleted = "advisor.session.completed"
)

// Event is implemented by every payload a Publisher accepts.
type Event interface {
	EventEnvelope() *Envelope
}

// Envelope holds the fields shared by all events.
type Envelope struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
}

// EventEnvelope returns e.
func (e *Envelope) EventEnvelope() *Envelope { return e }

// EventSource identifies the session and model that produced the event.
type EventSource struct {
	SessionID string `json:"session_id"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
}

func newEnvelope(eventType string, src EventSource, now time.Time) Envelope {
	return Envelope{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     now.UTC(),
		Source:        src,
	}
}

// ResultAnalyzedEvent carries one analysis result.
type ResultAnalyzedEvent struct {
	Envelope
	Result AnalyzedResult `json:"result"`
}

// AnalyzedResult is the transport-neutral form of a dispatcher result.
type AnalyzedResult struct {
	ID                  string    `json:"id"`
	Utterance           string    `json:"utterance"`
	Status              string    `json:"status"`
	DispatchedAt        time.Time `json:"dispatched_at"`
	CompletedAt         time.Time `json:"completed_at"`
	Citations           string    `json:"citations,omitempty"`
	RelevantInformation string    `json:"relevant_information,omitempty"`
	Reasoning           string    `json:"reasoning,omitempty"`
	ToolCalls           int       `json:"tool_calls"`
	Cost                float64   `json:"cost"`
	Usage               llm.Usage `json:"usage"`
	Error               string    `json:"error,omitempty"`
}

// NewResultAnalyzedEvent wraps r in a fresh envelope.
func NewResultAnalyzedEvent(src EventSource, r AnalyzedResult) *ResultAnalyzedEvent {
	return &ResultAnalyzedEvent{
		Envelope: newEnvelope(EventTypeResultAnalyzed, src, time.Now()),
		Result:   r,
	}
}

// SessionCompletedEvent summarises a finished session.
type SessionCompletedEvent struct {
	Envelope
	Finals     int           `json:"finals"`
	Results    int           `json:"results"`
	Failed     int           `json:"failed"`
	Cost       float64       `json:"cost"`
	Duration   time.Duration `json:"duration_ns"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

func NewSessionCompletedEvent(src EventSource) *SessionCompletedEvent {
	return &SessionCompletedEvent{Envelope: newEnvelope(EventTypeSessionCompleted, src, time.Now())}
}
