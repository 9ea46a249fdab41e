// Package stream exports appended audit records to a Kafka topic.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	// DefaultTopic receives audit records when no topic is configured.
	DefaultTopic = "tracker.activity"
	// DefaultDeliveryTimeout bounds how long a buffered record waits for the
	// broker before its delivery fails.
	DefaultDeliveryTimeout = 10 * time.Second
)

// ErrNoBrokers is returned by NewClient when the seed broker list is empty.
var ErrNoBrokers = errors.New("go-user-tracker: stream export requires at least one broker")

// Producer is the subset of *kgo.Client the publisher needs. TryProduce
// never blocks: a full buffer fails the record through the promise.
type Producer interface {
	TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// Message is the JSON document produced for each record.
type Message struct {
	ID            int64     `json:"id"`
	ActorID       string    `json:"actor_id"`
	Action        string    `json:"action"`
	Details       string    `json:"details"`
	OriginAddress string    `json:"ip_address"`
	OccurredAt    time.Time `json:"created_at"`
}

// Publisher implements types.ActivitySink over a Kafka producer.
type Publisher struct {
	producer Producer
	topic    string
	logger   types.Logger
}

// Option customizes the publisher.
type Option func(*Publisher)

// WithTopic overrides DefaultTopic.
func WithTopic(topic string) Option {
	return func(p *Publisher) {
		if topic = strings.TrimSpace(topic); topic != "" {
			p.topic = topic
		}
	}
}

// WithLogger reports failed deliveries. Defaults to a no-op logger.
func WithLogger(logger types.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher wraps producer.
func NewPublisher(producer Producer, opts ...Option) *Publisher {
	p := &Publisher{producer: producer, topic: DefaultTopic, logger: types.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// NewClient builds a franz-go client for the provided seed brokers. Records
// give up after DefaultDeliveryTimeout unless opts override it.
func NewClient(brokers []string, opts ...kgo.Opt) (*kgo.Client, error) {
	seeds := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		if broker = strings.TrimSpace(broker); broker != "" {
			seeds = append(seeds, broker)
		}
	}
	if len(seeds) == 0 {
		return nil, ErrNoBrokers
	}
	base := []kgo.Opt{
		kgo.SeedBrokers(seeds...),
		kgo.RecordDeliveryTimeout(DefaultDeliveryTimeout),
	}
	return kgo.NewClient(append(base, opts...)...)
}

var _ types.ActivitySink = (*Publisher)(nil)

// Topic reports the destination topic.
func (p *Publisher) Topic() string {
	return p.topic
}

// Log buffers the record, keyed by action, and returns without waiting for
// the broker. Delivery failures are logged. The record outlives ctx so a
// finished request does not cancel it.
func (p *Publisher) Log(ctx context.Context, record types.EventRecord) error {
	if p == nil || p.producer == nil {
		return nil
	}
	payload, err := json.Marshal(NewMessage(record))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "stream: encode activity record")
	}
	p.producer.TryProduce(context.WithoutCancel(ctx), &kgo.Record{
		Topic: p.topic,
		Key:   []byte(record.Action),
		Value: payload,
	}, p.delivered)
	return nil
}

func (p *Publisher) delivered(r *kgo.Record, err error) {
	if err == nil {
		return
	}
	p.logger.Error("stream delivery failed",
		goerrors.Wrap(err, goerrors.CategoryExternal, "stream: produce activity record").
			WithTextCode("STREAM_PRODUCE_FAILED"),
		"topic", r.Topic,
		"action", string(r.Key),
	)
}

// NewMessage converts a stored record into its wire form.
func NewMessage(record types.EventRecord) Message {
	return Message{
		ID:            record.ID,
		ActorID:       record.ActorID.String(),
		Action:        record.Action,
		Details:       record.Details,
		OriginAddress: record.OriginAddress,
		OccurredAt:    record.OccurredAt.UTC(),
	}
}
