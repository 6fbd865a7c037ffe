package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/store"
)

type BookingService struct {
	store     StateStore
	publisher EventPublisher
	logger    *zap.Logger

	now   func() time.Time
	newID func() (string, error)
}

type BookingOption func(*BookingService)

func WithClock(now func() time.Time) BookingOption {
	return func(s *BookingService) { s.now = now }
}

func WithIDGenerator(newID func() (string, error)) BookingOption {
	return func(s *BookingService) { s.newID = newID }
}

func NewBookingService(st StateStore, publisher EventPublisher, logger *zap.Logger, opts ...BookingOption) *BookingService {
	if publisher == nil {
		publisher = NopPublisher()
	}
	s := &BookingService{
		store:     st,
		publisher: publisher,
		logger:    logger.Named("booking"),
		now:       time.Now,
		newID:     newBookingID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newBookingID returns a version 7 UUID: a millisecond timestamp followed by
// random bits, so ids sort by creation time.
func newBookingID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CommitBooking turns draft into a confirmed booking. The record is built from
// the selection in draft and the live cart; the history prepend and the cart
// clear happen in one dispatch. On a *ValidationError nothing is mutated.
func (s *BookingService) CommitBooking(ctx context.Context, draft domain.BookingDraft) (domain.BookingHistoryRecord, error) {
	var sel domain.TableSlotSelection
	if draft.Selection != nil {
		sel = *draft.Selection
	}
	if fields := sel.Validate(); len(fields) > 0 {
		return domain.BookingHistoryRecord{}, &ValidationError{Fields: fields}
	}

	id, err := s.newID()
	if err != nil {
		return domain.BookingHistoryRecord{}, fmt.Errorf("generate booking id: %w", err)
	}

	res, err := s.store.Dispatch(store.CommitBooking{
		BookingID: id,
		Selection: sel,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return domain.BookingHistoryRecord{}, fmt.Errorf("commit booking: %w", err)
	}

	record := res.State.BookingHistory[0]
	s.logger.Info("booking committed",
		zap.String("booking_id", record.ID),
		zap.String("table_id", record.TableID),
		zap.Int64("grand_total", record.GrandTotal),
	)

	snapshot := record.Clone()
	s.publisher.Publish(ctx, domain.BookingEvent{
		ID:         uuid.NewString(),
		Type:       domain.EventBookingCommitted,
		BookingID:  record.ID,
		UserID:     res.State.Auth.UserID(),
		Status:     record.Status,
		GrandTotal: record.GrandTotal,
		Record:     &snapshot,
		OccurredAt: record.CreatedAt,
	})
	return record, nil
}

// CommitCurrent commits the draft assembled from the current state.
func (s *BookingService) CommitCurrent(ctx context.Context) (domain.BookingHistoryRecord, error) {
	st, err := s.store.State()
	if err != nil {
		return domain.BookingHistoryRecord{}, err
	}
	return s.CommitBooking(ctx, draftOf(st))
}
