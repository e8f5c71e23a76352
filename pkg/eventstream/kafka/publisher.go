// Package kafka publishes advisor events to a Kafka topic with
// segmentio/kafka-go. Messages are keyed by session id so one session's
// events keep their order within a partition.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/logger"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "advisor.events"

type Config struct {
	Brokers []string
	Topic   string

	// WriteTimeout bounds a single publish. Defaults to 10s.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// messageWriter is the part of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes events as JSON messages.
type Publisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewPublisher creates a Publisher. No connection is made until the first
// publish.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return newPublisher(w, c), nil
}

func newPublisher(w messageWriter, c Config) *Publisher {
	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}
	timeout := c.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{writer: w, topic: topic, timeout: timeout, logger: l}
}

// Publish writes one event.
func (p *Publisher) Publish(ctx context.Context, event eventstream.Event) error {
	if eventstream.IsNil(event) {
		return eventstream.ErrNilEvent
	}

	msg, err := toMessage(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s to %s: %w", event.EventEnvelope().EventType, p.topic, err)
	}

	p.logger.Debug("event published",
		"topic", p.topic,
		"event_type", event.EventEnvelope().EventType,
		"event_id", event.EventEnvelope().EventID,
	)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func toMessage(event eventstream.Event) (kafkago.Message, error) {
	env := event.EventEnvelope()
	value, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal %s: %w", env.EventType, err)
	}
	return kafkago.Message{
		Key:   []byte(env.Source.SessionID),
		Value: value,
		Time:  env.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "schema_version", Value: []byte(strconv.Itoa(env.SchemaVersion))},
		},
	}, nil
}
