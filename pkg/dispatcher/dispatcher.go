// Package dispatcher runs one agent invocation per final utterance on a
// bounded worker pool and collects the results.
//
// Dispatch never blocks the transcription consumer: when the queue is full
// the utterance is recorded as a failed result instead.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/advisor/pkg/agent"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/utils"
)

var (
	defaultNumWorkers uint = 3
	defaultQueueSize  uint = 64
)

// FailedText prefixes the error of a failed result.
const FailedText = "could not analyze this segment"

// Runner analyzes one utterance.
type Runner interface {
	Run(ctx context.Context, transcript string) (*agent.Prediction, error)
}

// RunnerFactory builds the runner for a single job, so jobs share no model
// client state.
type RunnerFactory func() (Runner, error)

// Config is the configuration of the dispatcher.
type Config struct {
	// Runner builds a runner per job.
	Runner RunnerFactory

	// NumWorkers is the number of concurrent invocations (defaults to 3).
	NumWorkers uint

	// QueueSize is the capacity of the job channel (defaults to 64).
	QueueSize uint

	// Context is the parent of every invocation. Defaults to
	// context.Background.
	Context context.Context

	Logger *slog.Logger

	// Clock stamps dispatch and completion times. Defaults to time.Now.
	Clock func() time.Time
}

// Status is the outcome of a job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Result is one surfaced analysis.
type Result struct {
	ID           string            `json:"id"`
	Utterance    string            `json:"utterance"`
	DispatchedAt time.Time         `json:"dispatched_at"`
	CompletedAt  time.Time         `json:"completed_at"`
	Status       Status            `json:"status"`
	Prediction   *agent.Prediction `json:"prediction,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Failed reports whether the job did not produce a prediction.
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// Order selects how Results sorts by dispatch time.
type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)

// Stats counts jobs by outcome.
type Stats struct {
	Dispatched int `json:"dispatched"`
	Surfaced   int `json:"surfaced"`
	Waiting    int `json:"waiting"`
	Failed     int `json:"failed"`
	Dropped    int `json:"dropped"`
}

type job struct {
	id           string
	utterance    string
	dispatchedAt time.Time
}

// Dispatcher is a bounded pool of agent invocations.
type Dispatcher struct {
	config *Config
	queue  chan job
	wg     sync.WaitGroup
	logger *slog.Logger
	now    func() time.Time

	// sendMu guards closed against sends on a closed queue.
	sendMu sync.RWMutex
	closed bool
	once   sync.Once

	mu       sync.Mutex
	results  []Result
	cost     float64
	stats    Stats
	observer func(Result)
}

// New creates a Dispatcher and starts its workers.
func New(c *Config) (*Dispatcher, error) {
	if c.Runner == nil {
		return nil, errors.New("dispatcher: runner factory is required")
	}
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}
	if c.Context == nil {
		c.Context = context.Background()
	}
	if c.Logger == nil {
		c.Logger = logger.Nop()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}

	d := &Dispatcher{
		config: c,
		queue:  make(chan job, c.QueueSize),
		logger: c.Logger,
		now:    c.Clock,
	}

	d.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go d.worker(i)
	}
	return d, nil
}

// Subscribe sets the function called with every appended result. It runs
// on the worker goroutine and must not block.
func (d *Dispatcher) Subscribe(fn func(Result)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observer = fn
}

// Dispatch timestamps the utterance and queues it. It returns false when
// the utterance was not queued: the queue was full, which records a failed
// result, or the dispatcher is closed.
func (d *Dispatcher) Dispatch(utterance string) bool {
	j := job{id: uuid.NewString(), utterance: utterance, dispatchedAt: d.now()}

	d.sendMu.RLock()
	if d.closed {
		d.sendMu.RUnlock()
		d.logger.Warn("dispatch after close ignored", "utterance", utils.Truncate(utterance, 60))
		return false
	}

	select {
	case d.queue <- j:
		d.sendMu.RUnlock()
		d.mu.Lock()
		d.stats.Dispatched++
		d.mu.Unlock()
		d.logger.Debug("utterance queued", "id", j.id)
		return true
	default:
		// Recorded under the read lock so Close cannot return before it.
		defer d.sendMu.RUnlock()
		d.logger.Error("utterance not queued, queue full", "utterance", utils.Truncate(utterance, 60))
		d.mu.Lock()
		d.stats.Dropped++
		d.mu.Unlock()
		d.appendResult(Result{
			ID:           j.id,
			Utterance:    utterance,
			DispatchedAt: j.dispatchedAt,
			CompletedAt:  d.now(),
			Status:       StatusFailed,
			Error:        FailedText + ": queue full",
		})
		return false
	}
}

// Close stops accepting utterances and waits for every queued and running
// job. Results does not change after Close returns.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.sendMu.Lock()
		d.closed = true
		close(d.queue)
		d.sendMu.Unlock()
	})
	d.wg.Wait()
}

// Results returns a copy of the results sorted by dispatch time.
func (d *Dispatcher) Results(order Order) []Result {
	d.mu.Lock()
	out := slices.Clone(d.results)
	d.mu.Unlock()

	slices.SortStableFunc(out, func(a, b Result) int {
		c := a.DispatchedAt.Compare(b.DispatchedAt)
		if order == NewestFirst {
			return -c
		}
		return c
	})
	return out
}

// Cost returns the total model spend of finished jobs.
func (d *Dispatcher) Cost() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cost
}

func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Dispatcher) worker(id uint) {
	defer d.wg.Done()
	d.logger.Debug("dispatcher worker started", "worker_id", id)

	for j := range d.queue {
		d.process(j)
	}

	d.logger.Debug("dispatcher worker stopped", "worker_id", id)
}

func (d *Dispatcher) process(j job) {
	pred, err := d.run(j)
	res := Result{
		ID:           j.id,
		Utterance:    j.utterance,
		DispatchedAt: j.dispatchedAt,
		CompletedAt:  d.now(),
	}

	if err != nil {
		d.logger.Error("agent invocation failed", "id", j.id, "error", err)
		res.Status = StatusFailed
		res.Error = fmt.Sprintf("%s: %v", FailedText, err)
		d.mu.Lock()
		d.stats.Failed++
		d.mu.Unlock()
		d.appendResult(res)
		return
	}

	d.mu.Lock()
	d.cost += pred.Cost
	if pred.Waiting() {
		d.stats.Waiting++
	} else {
		d.stats.Surfaced++
	}
	d.mu.Unlock()

	if pred.Waiting() {
		d.logger.Debug("nothing to surface", "id", j.id, "cost", pred.Cost)
		return
	}

	d.logger.Info("relevant information found",
		"id", j.id,
		"tool_calls", pred.ToolCalls(),
		"cost", pred.Cost,
	)
	res.Status = StatusSucceeded
	res.Prediction = pred
	d.appendResult(res)
}

func (d *Dispatcher) run(j job) (pred *agent.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panic: %v", r)
		}
	}()

	runner, err := d.config.Runner()
	if err != nil {
		return nil, fmt.Errorf("building agent: %w", err)
	}
	pred, err = runner.Run(d.config.Context, j.utterance)
	if err == nil && pred == nil {
		err = errors.New("agent returned no prediction")
	}
	return pred, err
}

func (d *Dispatcher) appendResult(r Result) {
	d.mu.Lock()
	d.results = append(d.results, r)
	observer := d.observer
	d.mu.Unlock()

	if observer != nil {
		observer(r)
	}
}
