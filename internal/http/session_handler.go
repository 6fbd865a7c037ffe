package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/session"
)

type SessionHandler struct {
	responder
	session *session.Session
}

func NewSessionHandler(s *session.Session, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{responder: newResponder(logger), session: s}
}

type SessionResponseDTO struct {
	Authenticated      bool         `json:"authenticated"`
	User               *domain.User `json:"user"`
	AdminAuthenticated bool         `json:"admin_authenticated"`
}

// Tokens never leave the engine, only who is signed in.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	auth, err := h.session.Auth()
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	admin, err := h.session.AdminAuth()
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, SessionResponseDTO{
		Authenticated:      auth.IsAuthenticated(),
		User:               auth.User,
		AdminAuthenticated: admin.IsAuthenticated(),
	})
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.AuthState
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.session.Login(r.Context(), req); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.GetSession(w, r)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.AuthState
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.session.AdminLogin(req); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.GetSession(w, r)
}

func (h *SessionHandler) AdminLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.AdminLogout(); err != nil {
		h.handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
