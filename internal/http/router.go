package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/session"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(s *session.Session, logger *zap.Logger, cfg RouterConfig) http.Handler {
	rs := newResponder(logger)
	sessionHandler := NewSessionHandler(s, logger)
	cartHandler := NewCartHandler(s.Cart, logger)
	draftHandler := NewDraftHandler(s.Draft, logger)
	bookingHandler := NewBookingHandler(s.Bookings, s.History, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(MaxBodySize(cfg.MaxRequestBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		rs.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	customerOnly := requireAuth(rs, s.Auth, "missing user authentication")
	adminOnly := requireAuth(rs, s.AdminAuth, "missing admin authentication")

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.GetSession)
			r.Post("/login", sessionHandler.Login)
			r.Post("/logout", sessionHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(customerOnly)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/items", cartHandler.AddItem)
				r.Post("/items/{item_id}/decrease", cartHandler.DecreaseQuantity)
				r.Delete("/items/{item_id}", cartHandler.RemoveItem)
			})
			r.Route("/draft", func(r chi.Router) {
				r.Get("/", draftHandler.GetDraft)
				r.Delete("/", draftHandler.Discard)
				r.Put("/selection", draftHandler.SelectSlot)
			})
			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", bookingHandler.ListBookings)
				r.Post("/", bookingHandler.Commit)
				r.Get("/{booking_id}", bookingHandler.GetBooking)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/session/login", sessionHandler.AdminLogin)
			r.Post("/session/logout", sessionHandler.AdminLogout)

			r.With(adminOnly).Put("/bookings/{booking_id}/status", bookingHandler.UpdateStatus)
		})
	})

	return otelhttp.NewHandler(r, "bookingd")
}
