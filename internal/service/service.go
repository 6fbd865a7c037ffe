package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/store"
)

// StateStore is the part of *store.Store the services need.
type StateStore interface {
	Dispatch(cmd store.Command) (store.Result, error)
	State() (store.State, error)
	Subscribe(l store.Listener) func()
}

// EventPublisher hands booking events to the outside world. Publish must not
// block the caller.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.BookingEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, domain.BookingEvent) {}

// NopPublisher drops every event.
func NopPublisher() EventPublisher {
	return nopPublisher{}
}

func commandName(cmd store.Command) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", cmd), "store.")
}
