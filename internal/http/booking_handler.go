package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/service"
)

type DraftHandler struct {
	responder
	draft *service.DraftAssembler
}

func NewDraftHandler(draft *service.DraftAssembler, logger *zap.Logger) *DraftHandler {
	return &DraftHandler{responder: newResponder(logger), draft: draft}
}

func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.draft.Draft()
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, draft)
}

// SelectSlot stores the selection as given; completeness is only checked at commit.
func (h *DraftHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	var req domain.TableSlotSelection
	if !h.decodeJSON(w, r, &req) {
		return
	}
	draft, err := h.draft.Select(req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, draft)
}

func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.draft.Discard(); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type BookingHandler struct {
	responder
	bookings *service.BookingService
	history  *service.HistoryService
}

func NewBookingHandler(bookings *service.BookingService, history *service.HistoryService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		responder: newResponder(logger),
		bookings:  bookings,
		history:   history,
	}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type UpdateStatusResponseDTO struct {
	Changed bool                        `json:"changed"`
	Booking domain.BookingHistoryRecord `json:"booking"`
}

func (h *BookingHandler) Commit(w http.ResponseWriter, r *http.Request) {
	record, err := h.bookings.CommitCurrent(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, record)
}

func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	history, err := h.history.List()
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, history)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	record, err := h.history.Get(chi.URLParam(r, "booking_id"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

// UpdateStatus is the admin path for completing or cancelling a booking.
// An unknown booking id is reported as 404 even though the store ignores it.
func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "booking_id")

	var req UpdateStatusRequestDTO
	if !h.decodeJSON(w, r, &req) {
		return
	}
	status, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	if _, err := h.history.Get(id); err != nil {
		h.handleServiceError(w, err)
		return
	}
	changed, err := h.history.SetStatus(r.Context(), id, status)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	record, err := h.history.Get(id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, UpdateStatusResponseDTO{Changed: changed, Booking: record})
}
