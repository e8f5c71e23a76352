package eventstreamutils

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/eventstream/kafka"
	"github.com/papercomputeco/advisor/pkg/eventstream/nop"
)

const (
	ProviderNop   = "nop"
	ProviderKafka = "kafka"
)

type NewPublisherOpts struct {
	ProviderType string
	Brokers      []string
	Topic        string
	Logger       *slog.Logger
}

// NewPublisher returns the publisher for the configured provider. An empty
// provider disables publishing.
func NewPublisher(opts *NewPublisherOpts) (eventstream.Publisher, error) {
	switch opts.ProviderType {
	case "", ProviderNop:
		return nop.NewPublisher(), nil
	case ProviderKafka:
		return kafka.NewPublisher(kafka.Config{
			Brokers: opts.Brokers,
			Topic:   opts.Topic,
			Logger:  opts.Logger,
		})
	default:
		return nil, fmt.Errorf("unsupported events provider: %q (supported: %s, %s)", opts.ProviderType, ProviderNop, ProviderKafka)
	}
}
