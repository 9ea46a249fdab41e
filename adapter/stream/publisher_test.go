package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
)

type recordingProducer struct {
	records []*kgo.Record
	err     error
}

func (p *recordingProducer) TryProduce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	p.records = append(p.records, r)
	promise(r, p.err)
}

// stalledProducer never completes a delivery, like a client whose brokers
// are unreachable.
type stalledProducer struct {
	ctx      context.Context
	promises chan func(*kgo.Record, error)
}

func (p *stalledProducer) TryProduce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	p.ctx = ctx
	p.promises <- func(_ *kgo.Record, err error) { promise(r, err) }
}

type recordingLogger struct {
	errs []error
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(_ string, err error, _ ...any) {
	l.errs = append(l.errs, err)
}

func TestPublisherProducesJSONKeyedByAction(t *testing.T) {
	producer := &recordingProducer{}
	publisher := NewPublisher(producer, WithTopic("audit"))
	actorID := uuid.New()
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	err := publisher.Log(context.Background(), types.EventRecord{
		ID:            7,
		ActorID:       actorID,
		Action:        types.ActionPostCreated,
		Details:       "Post: Hello",
		OriginAddress: "203.0.113.7",
		OccurredAt:    at,
	})
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	record := producer.records[0]
	require.Equal(t, "audit", record.Topic)
	require.Equal(t, types.ActionPostCreated, string(record.Key))

	var msg Message
	require.NoError(t, json.Unmarshal(record.Value, &msg))
	require.Equal(t, int64(7), msg.ID)
	require.Equal(t, actorID.String(), msg.ActorID)
	require.Equal(t, "Post: Hello", msg.Details)
	require.Equal(t, "203.0.113.7", msg.OriginAddress)
	require.True(t, at.Equal(msg.OccurredAt))
}

func TestPublisherLogsDeliveryErrors(t *testing.T) {
	boom := errors.New("broker unavailable")
	logger := &recordingLogger{}
	publisher := NewPublisher(&recordingProducer{err: boom}, WithLogger(logger))

	err := publisher.Log(context.Background(), types.EventRecord{Action: types.ActionLogin})
	require.NoError(t, err)
	require.Len(t, logger.errs, 1)
	require.ErrorIs(t, logger.errs[0], boom)
	require.Equal(t, DefaultTopic, publisher.Topic())
}

func TestPublisherDoesNotWaitForBroker(t *testing.T) {
	producer := &stalledProducer{promises: make(chan func(*kgo.Record, error), 1)}
	logger := &recordingLogger{}
	publisher := NewPublisher(producer, WithLogger(logger))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- publisher.Log(ctx, types.EventRecord{Action: types.ActionLogin})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Log blocked on an undelivered record")
	}

	cancel()
	require.NoError(t, producer.ctx.Err())

	promise := <-producer.promises
	promise(nil, kgo.ErrRecordTimeout)
	require.Len(t, logger.errs, 1)
	require.ErrorIs(t, logger.errs[0], kgo.ErrRecordTimeout)
}

func TestPublisherWithoutProducerIsNoop(t *testing.T) {
	var publisher *Publisher
	require.NoError(t, publisher.Log(context.Background(), types.EventRecord{Action: types.ActionLogin}))
	require.NoError(t, NewPublisher(nil).Log(context.Background(), types.EventRecord{}))
}

func TestNewClientRequiresBrokers(t *testing.T) {
	_, err := NewClient([]string{" ", ""})
	require.ErrorIs(t, err, ErrNoBrokers)
}
