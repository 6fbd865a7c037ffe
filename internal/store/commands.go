package store

import (
	"time"

	"github.com/fjod/go_booking/internal/domain"
)

// Command is the closed set of mutations the store accepts. The unexported
// marker keeps other packages from adding kinds the reducer does not handle.
type Command interface {
	command()
}

// Cart

type AddItem struct {
	Item     domain.MenuItem
	Quantity int
}

type DecreaseQuantity struct {
	ItemID string
}

type RemoveItem struct {
	ItemID string
}

type ClearCart struct{}

// Draft

type SelectSlot struct {
	Selection domain.TableSlotSelection
}

type ClearSelection struct{}

// DiscardDraft drops the selection and the cart together.
type DiscardDraft struct{}

// Booking history

// CommitBooking turns the live cart plus Selection into a history record,
// prepends it and clears the cart and the selection in one step.
type CommitBooking struct {
	BookingID string
	Selection domain.TableSlotSelection
	CreatedAt time.Time
}

type SetBookingStatus struct {
	BookingID string
	Status    domain.BookingStatus
}

type ClearHistory struct{}

// Auth

type SetAuth struct {
	Auth domain.AuthState
}

type ClearAuth struct{}

type SetAdminAuth struct {
	Auth domain.AuthState
}

type ClearAdminAuth struct{}

// ResetPersisted returns every whitelisted store to its initial value.
type ResetPersisted struct{}

func (AddItem) command()          {}
func (DecreaseQuantity) command() {}
func (RemoveItem) command()       {}
func (ClearCart) command()        {}
func (SelectSlot) command()       {}
func (ClearSelection) command()   {}
func (DiscardDraft) command()     {}
func (CommitBooking) command()    {}
func (SetBookingStatus) command() {}
func (ClearHistory) command()     {}
func (SetAuth) command()          {}
func (ClearAuth) command()        {}
func (SetAdminAuth) command()     {}
func (ClearAdminAuth) command()   {}
func (ResetPersisted) command()   {}
