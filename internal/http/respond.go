package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/service"
	"github.com/fjod/go_booking/internal/session"
	"github.com/fjod/go_booking/internal/store"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// responder writes JSON responses and logs what the client never sees.
type responder struct {
	logger *zap.Logger
}

func newResponder(logger *zap.Logger) responder {
	return responder{logger: logger.Named("http")}
}

func (rs responder) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (rs responder) respondError(w http.ResponseWriter, status int, code, message string) {
	rs.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts service and store errors to HTTP status codes.
func (rs responder) handleServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		rs.respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "booking draft is incomplete",
			Code:    "validation_failed",
			Details: verr.Fields,
		})
	case errors.Is(err, service.ErrBookingNotFound):
		rs.respondError(w, http.StatusNotFound, "not_found", "booking not found")
	case errors.Is(err, service.ErrInvalidStatus):
		rs.respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, session.ErrInvalidIdentity):
		rs.respondError(w, http.StatusBadRequest, "invalid_identity", err.Error())
	case errors.Is(err, store.ErrNotInitialized), errors.Is(err, store.ErrDisposed):
		rs.respondError(w, http.StatusServiceUnavailable, "service_unavailable", "session is not available")
	default:
		rs.logger.Error("unhandled service error", zap.Error(err))
		rs.respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (rs responder) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			rs.respondError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
			return false
		}
		rs.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}
