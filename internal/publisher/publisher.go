package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/domain"
)

const (
	maxBatch     = 100
	drainTimeout = 5 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends booking events to Kafka. Publish only enqueues; Run does
// the writing, so committing a booking never waits on the broker.
type Publisher struct {
	writer  messageWriter
	events  chan domain.BookingEvent
	logger  *zap.Logger
	dropped atomic.Int64
	failed  atomic.Int64
}

func NewPublisher(logger *zap.Logger, topic string, bufferSize int, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, logger, bufferSize)
}

func newPublisher(w messageWriter, logger *zap.Logger, bufferSize int) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Publisher{
		writer: w,
		events: make(chan domain.BookingEvent, bufferSize),
		logger: logger.Named("publisher"),
	}
}

// Publish enqueues event. When the buffer is full the event is dropped.
func (p *Publisher) Publish(_ context.Context, event domain.BookingEvent) {
	select {
	case p.events <- event:
	default:
		p.dropped.Add(1)
		p.logger.Warn("event buffer full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("booking_id", event.BookingID),
		)
	}
}

// Dropped counts events lost to a full buffer.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Failed counts events the broker did not accept.
func (p *Publisher) Failed() int64 {
	return p.failed.Load()
}

// Run writes queued events until ctx is done, then tries once more to
// deliver what is still queued.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case event := <-p.events:
			p.write(ctx, p.collect(event))
		case <-ctx.Done():
			p.drain()
			return
		}
	}
}

func (p *Publisher) collect(first domain.BookingEvent) []domain.BookingEvent {
	batch := []domain.BookingEvent{first}
	for len(batch) < maxBatch {
		select {
		case event := <-p.events:
			batch = append(batch, event)
		default:
			return batch
		}
	}
	return batch
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for len(p.events) > 0 {
		p.write(ctx, p.collect(<-p.events))
	}
}

func (p *Publisher) write(ctx context.Context, events []domain.BookingEvent) {
	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		msg, err := toMessage(event)
		if err != nil {
			p.failed.Add(1)
			p.logger.Error("failed to encode event", zap.String("booking_id", event.BookingID), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.failed.Add(int64(len(msgs)))
		p.logger.Error("failed to publish events", zap.Int("count", len(msgs)), zap.Error(err))
		return
	}
	p.logger.Debug("events published", zap.Int("count", len(msgs)))
}

func toMessage(event domain.BookingEvent) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.BookingID), // booking id keeps per-booking ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
