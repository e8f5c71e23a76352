// Package session owns one advisor session: the transcription consumer, the
// per-utterance dispatcher, the finals log, the results and the running
// cost. It replaces process-wide state with an explicit object.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/dispatcher"
	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/eventstream/nop"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/transcription"
)

// ErrSessionRunning is returned by Run while another Run is in progress.
var ErrSessionRunning = errors.New("session is already running")

type Config struct {
	// Runner builds the agent for each utterance and for AnalyzeText.
	Runner dispatcher.RunnerFactory

	// Memory, when set, receives every final utterance. Pass the same
	// Memory to the agents built by Runner to give them call context.
	Memory *agent.Memory

	// Publisher receives result and completion events. Defaults to nop.
	Publisher eventstream.Publisher

	// Provider and Model label published events.
	Provider string
	Model    string

	Workers   uint
	QueueSize uint

	// ConsumerOptions configure the transcription consumer.
	ConsumerOptions []transcription.Option

	Logger *slog.Logger
	Clock  func() time.Time
}

// Session is safe for concurrent use; Run calls are serialised.
type Session struct {
	id        string
	config    *Config
	logger    *slog.Logger
	publisher eventstream.Publisher
	consumer  *transcription.Consumer

	runMu sync.Mutex

	mu         sync.Mutex
	cost       float64
	results    []dispatcher.Result
	transcript []transcription.Event
	active     *dispatcher.Dispatcher
	observer   func(dispatcher.Result)
	listener   func(transcription.Event)
}

func New(c *Config) (*Session, error) {
	if c.Runner == nil {
		return nil, errors.New("session: runner factory is required")
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Publisher == nil {
		c.Publisher = nop.NewPublisher()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}

	id := "sess_" + uuid.NewString()
	l := c.Logger.With("session_id", id)
	opts := append([]transcription.Option{transcription.WithLogger(l)}, c.ConsumerOptions...)

	return &Session{
		id:        id,
		config:    c,
		logger:    l,
		publisher: c.Publisher,
		consumer:  transcription.NewConsumer(opts...),
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

// Subscribe sets the function called for every surfaced or failed result,
// from both Run and AnalyzeText.
func (s *Session) Subscribe(fn func(dispatcher.Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

// SubscribeTranscript sets the function called for every recognizer event
// of a Run, interims included, in arrival order.
func (s *Session) SubscribeTranscript(fn func(transcription.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// Run transcribes a call through rec until the recognizer stops the
// session or ctx ends, analyzing every final utterance. It returns once all
// dispatched analyses have finished, so no result appears after the report.
func (s *Session) Run(ctx context.Context, rec transcription.Recognizer) (*Report, error) {
	if !s.runMu.TryLock() {
		return nil, ErrSessionRunning
	}
	defer s.runMu.Unlock()

	startedAt := s.config.Clock()
	s.config.Memory.Reset()

	d, err := dispatcher.New(&dispatcher.Config{
		Runner:     s.config.Runner,
		NumWorkers: s.config.Workers,
		QueueSize:  s.config.QueueSize,
		Context:    ctx,
		Logger:     s.logger,
		Clock:      s.config.Clock,
	})
	if err != nil {
		return nil, err
	}
	d.Subscribe(func(r dispatcher.Result) { s.surface(ctx, r) })

	s.mu.Lock()
	s.active = d
	s.transcript = nil
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
	}()

	s.consumer.SetCallback(func(e transcription.Event) error {
		s.hear(e)
		if e.Type != transcription.Final {
			return nil
		}
		line := e.Utterance()
		s.config.Memory.Add(line)
		if !d.Dispatch(line) {
			return fmt.Errorf("utterance not dispatched: %q", line)
		}
		return nil
	})
	if err := s.consumer.Start(); err != nil {
		d.Close()
		return nil, err
	}

	if err := rec.Start(ctx, s.consumer.Handlers()); err != nil {
		s.consumer.Stop()
		d.Close()
		return nil, fmt.Errorf("%w: %w", transcription.ErrTranscriptionSession, err)
	}

	select {
	case <-s.consumer.Done():
	case <-ctx.Done():
		s.logger.Info("session interrupted", "error", ctx.Err())
	}
	if err := rec.Stop(); err != nil {
		s.logger.Warn("stopping recognizer", "error", err)
	}
	s.consumer.Stop()
	d.Close()

	finishedAt := s.config.Clock()
	report := &Report{
		SessionID:  s.id,
		Finals:     s.consumer.Finals(),
		Results:    d.Results(dispatcher.NewestFirst),
		Stats:      d.Stats(),
		Cost:       d.Cost(),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Duration:   finishedAt.Sub(startedAt),
	}

	s.mu.Lock()
	s.cost += report.Cost
	s.mu.Unlock()

	s.publishCompleted(context.WithoutCancel(ctx), report)
	s.logger.Info("analysis complete",
		"finals", len(report.Finals),
		"results", len(report.Results),
		"cost", report.Cost,
		"duration", report.Duration,
	)
	return report, nil
}

// AnalyzeText runs one direct invocation on typed text. Its cost is added
// to the session total and a non-waiting prediction is recorded as a
// result.
func (s *Session) AnalyzeText(ctx context.Context, text string) (*agent.Prediction, error) {
	runner, err := s.config.Runner()
	if err != nil {
		return nil, fmt.Errorf("building agent: %w", err)
	}

	dispatchedAt := s.config.Clock()
	pred, err := runner.Run(ctx, text)
	res := dispatcher.Result{
		ID:           uuid.NewString(),
		Utterance:    text,
		DispatchedAt: dispatchedAt,
		CompletedAt:  s.config.Clock(),
	}
	if err != nil {
		res.Status = dispatcher.StatusFailed
		res.Error = fmt.Sprintf("%s: %v", dispatcher.FailedText, err)
		s.surface(ctx, res)
		return nil, err
	}

	s.mu.Lock()
	s.cost += pred.Cost
	s.mu.Unlock()

	if !pred.Waiting() {
		res.Status = dispatcher.StatusSucceeded
		res.Prediction = pred
		s.surface(ctx, res)
	}
	return pred, nil
}

// Cost returns the spend of every finished invocation of the session,
// including a Run in progress.
func (s *Session) Cost() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	cost := s.cost
	if s.active != nil {
		cost += s.active.Cost()
	}
	return cost
}

// Finals returns the final utterances of the current or last Run.
func (s *Session) Finals() []transcription.Event {
	return s.consumer.Finals()
}

// Transcript returns every recognizer event of the current or last Run,
// interims included, in arrival order.
func (s *Session) Transcript() []transcription.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transcript)
}

// Results returns every result of the session, newest dispatch first.
// Results dispatched at the same time keep the latest completion first.
func (s *Session) Results() []dispatcher.Result {
	s.mu.Lock()
	out := slices.Clone(s.results)
	s.mu.Unlock()

	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b dispatcher.Result) int {
		return b.DispatchedAt.Compare(a.DispatchedAt)
	})
	return out
}

// Close releases the publisher.
func (s *Session) Close() error {
	return s.publisher.Close()
}

func (s *Session) hear(e transcription.Event) {
	s.mu.Lock()
	s.transcript = append(s.transcript, e)
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(e)
	}
}

func (s *Session) surface(ctx context.Context, r dispatcher.Result) {
	s.mu.Lock()
	s.results = append(s.results, r)
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		observer(r)
	}
	s.publishResult(context.WithoutCancel(ctx), r)
}

func (s *Session) source() eventstream.EventSource {
	return eventstream.EventSource{SessionID: s.id, Provider: s.config.Provider, Model: s.config.Model}
}

func (s *Session) publishResult(ctx context.Context, r dispatcher.Result) {
	payload := eventstream.AnalyzedResult{
		ID:           r.ID,
		Utterance:    r.Utterance,
		Status:       string(r.Status),
		DispatchedAt: r.DispatchedAt,
		CompletedAt:  r.CompletedAt,
		Error:        r.Error,
	}
	if p := r.Prediction; p != nil {
		payload.Citations = p.Citations
		payload.RelevantInformation = p.RelevantInformation
		payload.Reasoning = p.Reasoning
		payload.ToolCalls = p.ToolCalls()
		payload.Cost = p.Cost
		payload.Usage = p.Usage
	}
	if err := s.publisher.Publish(ctx, eventstream.NewResultAnalyzedEvent(s.source(), payload)); err != nil {
		s.logger.Warn("publishing result failed", "result_id", r.ID, "error", err)
	}
}

func (s *Session) publishCompleted(ctx context.Context, rep *Report) {
	event := eventstream.NewSessionCompletedEvent(s.source())
	event.Finals = len(rep.Finals)
	event.Results = len(rep.Results)
	event.Failed = rep.Stats.Failed + rep.Stats.Dropped
	event.Cost = rep.Cost
	event.Duration = rep.Duration
	event.StartedAt = rep.StartedAt
	event.FinishedAt = rep.FinishedAt
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publishing session completion failed", "error", err)
	}
}
