package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/persist"
	"github.com/fjod/go_booking/internal/service"
	"github.com/fjod/go_booking/internal/store"
)

var ErrInvalidIdentity = errors.New("identity has no token or user id")

// Session ties one store to its durable copy and to the services acting on
// it. Exactly one booking history belongs to the signed-in customer.
type Session struct {
	store     *store.Store
	persistor *persist.Persistor
	logger    *zap.Logger

	Cart     *service.CartService
	Draft    *service.DraftAssembler
	Bookings *service.BookingService
	History  *service.HistoryService

	authMu sync.Mutex // orders Login/Logout against each other
}

func New(storage persist.Storage, publisher service.EventPublisher, logger *zap.Logger, opts persist.Options) *Session {
	st := store.New()
	return &Session{
		store:     st,
		persistor: persist.NewPersistor(storage, logger, opts),
		logger:    logger.Named("session"),
		Cart:      service.NewCartService(st, logger),
		Draft:     service.NewDraftAssembler(st, logger),
		Bookings:  service.NewBookingService(st, publisher, logger),
		History:   service.NewHistoryService(st, publisher, logger),
	}
}

// Init rehydrates the persisted stores and starts mirroring changes.
func (s *Session) Init(ctx context.Context) error {
	if err := s.store.Init(s.persistor.Rehydrate(ctx)); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	s.persistor.Attach(s.store)
	return nil
}

func (s *Session) Store() *store.Store {
	return s.store
}

func (s *Session) Persistor() *persist.Persistor {
	return s.persistor
}

func (s *Session) Auth() (domain.AuthState, error) {
	st, err := s.store.State()
	if err != nil {
		return domain.AuthState{}, err
	}
	return st.Auth, nil
}

func (s *Session) AdminAuth() (domain.AuthState, error) {
	st, err := s.store.State()
	if err != nil {
		return domain.AuthState{}, err
	}
	return st.AdminAuth, nil
}

// Login stores the customer identity. Signing in as a different user first
// purges everything the previous user left behind.
func (s *Session) Login(ctx context.Context, auth domain.AuthState) error {
	if !auth.IsAuthenticated() {
		return ErrInvalidIdentity
	}

	s.authMu.Lock()
	defer s.authMu.Unlock()

	current, err := s.Auth()
	if err != nil {
		return err
	}
	if current.UserID() != "" && current.UserID() != auth.UserID() {
		s.logger.Info("different user signing in, purging previous session",
			zap.String("previous_user_id", current.UserID()),
			zap.String("user_id", auth.UserID()),
		)
		if err := s.purge(ctx); err != nil {
			return err
		}
	}

	if _, err := s.store.Dispatch(store.SetAuth{Auth: auth}); err != nil {
		return err
	}
	s.logger.Info("user signed in", zap.String("user_id", auth.UserID()))
	return nil
}

// Logout ends the customer session: every whitelisted store is reset and
// the durable blob deleted.
func (s *Session) Logout(ctx context.Context) error {
	s.authMu.Lock()
	defer s.authMu.Unlock()

	return s.purge(ctx)
}

func (s *Session) AdminLogin(auth domain.AuthState) error {
	if !auth.IsAuthenticated() {
		return ErrInvalidIdentity
	}
	if _, err := s.store.Dispatch(store.SetAdminAuth{Auth: auth}); err != nil {
		return err
	}
	s.logger.Info("admin signed in", zap.String("admin_id", auth.UserID()))
	return nil
}

func (s *Session) AdminLogout() error {
	_, err := s.store.Dispatch(store.ClearAdminAuth{})
	return err
}

// Purge resets the whitelisted stores and deletes the durable blob. A
// storage failure is logged and counted; the in-memory reset still holds.
func (s *Session) Purge(ctx context.Context) error {
	s.authMu.Lock()
	defer s.authMu.Unlock()

	return s.purge(ctx)
}

func (s *Session) purge(ctx context.Context) error {
	if _, err := s.store.Dispatch(store.ClearSelection{}); err != nil {
		return err
	}
	err := s.persistor.Purge(ctx, s.store)
	var perr *persist.PersistenceError
	if errors.As(err, &perr) {
		s.logger.Error("session purged in memory only", zap.Error(perr))
		return nil
	}
	return err
}

// Flush writes any pending change before returning.
func (s *Session) Flush(ctx context.Context) error {
	return s.persistor.Flush(ctx)
}

// Dispose flushes pending writes, stops persistence and disposes the store.
func (s *Session) Dispose(ctx context.Context) error {
	if err := s.persistor.Flush(ctx); err != nil {
		s.logger.Warn("final persist write failed", zap.Error(err))
	}
	if err := s.persistor.Close(); err != nil {
		s.logger.Warn("persist close failed", zap.Error(err))
	}
	return s.store.Dispose()
}
