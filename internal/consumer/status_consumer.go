package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/domain"
)

const readBackoff = time.Second

// StatusUpdate is the message external collaborators (front desk, scheduler)
// publish to move a booking to completed or cancelled.
type StatusUpdate struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

type StatusUpdater interface {
	SetStatus(ctx context.Context, id string, status domain.BookingStatus) (bool, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type StatusConsumer struct {
	updater StatusUpdater
	reader  messageReader
	logger  *zap.Logger
}

func NewStatusConsumer(updater StatusUpdater, logger *zap.Logger, topic, groupID string, brokers ...string) *StatusConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return newStatusConsumer(updater, reader, logger)
}

func newStatusConsumer(updater StatusUpdater, reader messageReader, logger *zap.Logger) *StatusConsumer {
	return &StatusConsumer{
		updater: updater,
		reader:  reader,
		logger:  logger.Named("status-consumer"),
	}
}

func (c *StatusConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *StatusConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Warn("error closing kafka reader", zap.Error(err))
	}
}

func (c *StatusConsumer) processMessage(ctx context.Context) {
	m, err := c.reader.ReadMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.logger.Warn("error reading message", zap.Error(err))
		select {
		case <-time.After(readBackoff):
		case <-ctx.Done():
		}
		return
	}

	var update StatusUpdate
	if err := json.Unmarshal(m.Value, &update); err != nil {
		c.logger.Warn("error parsing message", zap.Int64("offset", m.Offset), zap.Error(err))
		return
	}
	if update.BookingID == "" {
		c.logger.Warn("status update without booking_id", zap.Int64("offset", m.Offset))
		return
	}

	status, err := domain.ParseBookingStatus(update.Status)
	if err != nil {
		c.logger.Warn("status update rejected", zap.String("booking_id", update.BookingID), zap.Error(err))
		return
	}

	changed, err := c.updater.SetStatus(ctx, update.BookingID, status)
	if err != nil {
		c.logger.Error("failed to apply status update", zap.String("booking_id", update.BookingID), zap.Error(err))
		return
	}
	c.logger.Debug("status update applied",
		zap.String("booking_id", update.BookingID),
		zap.Stringer("status", status),
		zap.Bool("changed", changed),
	)
}
