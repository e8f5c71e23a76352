package transcription

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/papercomputeco/advisor/pkg/logger"
)

const (
	defaultQueueSize    = 256
	defaultPollInterval = time.Second
)

// Callback receives every event drained from the queue.
type Callback func(Event) error

type item struct {
	event Event
	stop  bool
}

// Consumer drains recognizer events on a single goroutine, in order.
// Finals are appended to the log before the callback sees them.
type Consumer struct {
	logger       *slog.Logger
	queueSize    int
	pollInterval time.Duration
	now          func() time.Time

	// sendMu orders sends: Enqueue holds it shared, Signal exclusively, so
	// the sentinel never overtakes an accepted event.
	sendMu sync.RWMutex

	mu       sync.Mutex
	callback Callback
	finals   []Event
	queue    chan item
	done     chan struct{}
	running  bool
	signaled bool
}

type Option func(*Consumer)

// WithQueueSize sets the capacity of the event queue.
func WithQueueSize(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPollInterval sets how long the drain loop waits on an empty queue
// before logging that it is idle.
func WithPollInterval(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithClock overrides the clock used to stamp events without a time.
func WithClock(now func() time.Time) Option {
	return func(c *Consumer) {
		if now != nil {
			c.now = now
		}
	}
}

func NewConsumer(opts ...Option) *Consumer {
	c := &Consumer{
		logger:       logger.Nop(),
		queueSize:    defaultQueueSize,
		pollInterval: defaultPollInterval,
		now:          time.Now,
		done:         make(chan struct{}),
	}
	close(c.done)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetCallback installs the per-event callback. It may be called while the
// consumer runs; the next event uses the new callback.
func (c *Consumer) SetCallback(fn Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = fn
}

// Start clears the finals log and launches the drain goroutine.
func (c *Consumer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return errors.New("transcription consumer already running")
	}
	c.finals = nil
	c.queue = make(chan item, c.queueSize)
	c.done = make(chan struct{})
	c.running = true
	c.signaled = false

	go c.drain(c.queue, c.done)
	return nil
}

// Enqueue adds an event. It blocks while the queue is full and fails with
// ErrConsumerStopped once the stop sentinel was sent.
func (c *Consumer) Enqueue(e Event) error {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	c.mu.Lock()
	if !c.running || c.signaled {
		c.mu.Unlock()
		return ErrConsumerStopped
	}
	queue, done := c.queue, c.done
	c.mu.Unlock()

	if e.At.IsZero() {
		e.At = c.now()
	}

	select {
	case queue <- item{event: e}:
		return nil
	case <-done:
		return ErrConsumerStopped
	}
}

// Signal sends the stop sentinel. Only the first call after Start has an
// effect; events enqueued before it are still drained. It must not be
// called from the callback.
func (c *Consumer) Signal() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.mu.Lock()
	if !c.running || c.signaled {
		c.mu.Unlock()
		return
	}
	c.signaled = true
	queue, done := c.queue, c.done
	c.mu.Unlock()

	select {
	case queue <- item{stop: true}:
	case <-done:
	}
}

// Stop sends the sentinel and waits for the drain goroutine to exit.
func (c *Consumer) Stop() {
	c.Signal()
	<-c.Done()
}

// Done is closed when the drain goroutine exits. It is closed before the
// first Start.
func (c *Consumer) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Finals returns a copy of the final events received since Start.
func (c *Consumer) Finals() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.finals)
}

// Transcript joins the finals as "Speaker {id}: {text}" lines.
func (c *Consumer) Transcript() []string {
	finals := c.Finals()
	lines := make([]string, len(finals))
	for i, e := range finals {
		lines[i] = e.Utterance()
	}
	return lines
}

func (c *Consumer) drain(queue <-chan item, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.signaled = true
		c.mu.Unlock()
		close(done)
	}()

	c.logger.Debug("transcription consumer started")
	idle := time.NewTimer(c.pollInterval)
	defer idle.Stop()

	for {
		select {
		case it := <-queue:
			if it.stop {
				c.logger.Debug("transcription consumer stopped", "finals", len(c.Finals()))
				return
			}
			c.handle(it.event)
		case <-idle.C:
			c.logger.Debug("transcription queue idle", "poll_interval", c.pollInterval)
		}
		idle.Reset(c.pollInterval)
	}
}

func (c *Consumer) handle(e Event) {
	c.mu.Lock()
	if e.Type == Final {
		c.finals = append(c.finals, e)
	}
	cb := c.callback
	c.mu.Unlock()

	if e.Type == Final {
		c.logger.Info("final utterance", "speaker", e.SpeakerID, "text", e.Text)
	}
	if cb == nil {
		return
	}
	if err := c.invoke(cb, e); err != nil {
		c.logger.Error("transcription callback failed", "type", e.Type, "error", err)
	}
}

func (c *Consumer) invoke(cb Callback, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic: %v", r)
		}
	}()
	return cb(e)
}
