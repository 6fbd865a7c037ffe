package grpc

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/service"
	"github.com/fjod/go_booking/internal/store"
)

type BookingHistory interface {
	Get(id string) (domain.BookingHistoryRecord, error)
	SetStatus(ctx context.Context, id string, status domain.BookingStatus) (bool, error)
}

// AdminAuth reports the staff identity currently signed in to the session.
type AdminAuth func() (domain.AuthState, error)

type StaffHandler struct {
	history   BookingHistory
	adminAuth AdminAuth
	logger    *zap.Logger
}

func NewStaffHandler(history BookingHistory, adminAuth AdminAuth, logger *zap.Logger) *StaffHandler {
	return &StaffHandler{
		history:   history,
		adminAuth: adminAuth,
		logger:    logger.Named("grpc"),
	}
}

func (h *StaffHandler) SetStatus(ctx context.Context, req *SetStatusRequest) (*SetStatusResponse, error) {
	if err := h.requireAdmin(); err != nil {
		return nil, err
	}
	if req.BookingID == "" {
		return nil, status.Error(codes.InvalidArgument, "booking_id is required")
	}
	next, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid status: %v", err)
	}

	// unknown ids are a no-op in the store, report them as NotFound here
	if _, err := h.history.Get(req.BookingID); err != nil {
		return nil, h.toStatus(err)
	}
	changed, err := h.history.SetStatus(ctx, req.BookingID, next)
	if err != nil {
		return nil, h.toStatus(err)
	}
	record, err := h.history.Get(req.BookingID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &SetStatusResponse{Changed: changed, Booking: record}, nil
}

func (h *StaffHandler) GetBooking(ctx context.Context, req *GetBookingRequest) (*GetBookingResponse, error) {
	if err := h.requireAdmin(); err != nil {
		return nil, err
	}
	record, err := h.history.Get(req.BookingID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &GetBookingResponse{Booking: record}, nil
}

func (h *StaffHandler) requireAdmin() error {
	auth, err := h.adminAuth()
	if err != nil {
		return h.toStatus(err)
	}
	if !auth.IsAuthenticated() {
		return status.Error(codes.Unauthenticated, "missing admin authentication")
	}
	return nil
}

func (h *StaffHandler) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, store.ErrNotInitialized), errors.Is(err, store.ErrDisposed):
		return status.Error(codes.Unavailable, "session is not available")
	default:
		h.logger.Error("unhandled service error", zap.Error(err))
		return status.Errorf(codes.Internal, "internal error")
	}
}
