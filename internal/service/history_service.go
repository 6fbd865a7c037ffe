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

// HistoryService exposes the confirmed bookings. Records are added only by
// BookingService; their status is moved by external collaborators.
type HistoryService struct {
	store     StateStore
	publisher EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewHistoryService(st StateStore, publisher EventPublisher, logger *zap.Logger) *HistoryService {
	if publisher == nil {
		publisher = NopPublisher()
	}
	return &HistoryService{
		store:     st,
		publisher: publisher,
		logger:    logger.Named("history"),
		now:       time.Now,
	}
}

// List returns the bookings newest first.
func (s *HistoryService) List() ([]domain.BookingHistoryRecord, error) {
	st, err := s.store.State()
	if err != nil {
		return nil, err
	}
	return st.BookingHistory, nil
}

func (s *HistoryService) Get(id string) (domain.BookingHistoryRecord, error) {
	st, err := s.store.State()
	if err != nil {
		return domain.BookingHistoryRecord{}, err
	}
	rec, ok := st.FindBooking(id)
	if !ok {
		return domain.BookingHistoryRecord{}, fmt.Errorf("%w: %s", ErrBookingNotFound, id)
	}
	return rec, nil
}

// SetStatus moves booking id to status and reports whether it changed.
// Setting the current status again, or naming an unknown id, is a no-op.
func (s *HistoryService) SetStatus(ctx context.Context, id string, status domain.BookingStatus) (bool, error) {
	if !status.IsValid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	res, err := s.store.Dispatch(store.SetBookingStatus{BookingID: id, Status: status})
	if err != nil {
		return false, fmt.Errorf("set booking status: %w", err)
	}
	if !res.Changed {
		if res.PreviousStatus == "" {
			s.logger.Debug("status update for unknown booking ignored", zap.String("booking_id", id))
		}
		return false, nil
	}

	rec, _ := res.State.FindBooking(id)
	s.logger.Info("booking status changed",
		zap.String("booking_id", id),
		zap.Stringer("from", res.PreviousStatus),
		zap.Stringer("to", rec.Status),
	)
	s.publisher.Publish(ctx, domain.BookingEvent{
		ID:             uuid.NewString(),
		Type:           domain.EventBookingStatusChanged,
		BookingID:      id,
		UserID:         res.State.Auth.UserID(),
		Status:         rec.Status,
		PreviousStatus: res.PreviousStatus,
		GrandTotal:     rec.GrandTotal,
		OccurredAt:     s.now().UTC(),
	})
	return true, nil
}

func (s *HistoryService) ClearAll() error {
	_, err := s.store.Dispatch(store.ClearHistory{})
	return err
}
