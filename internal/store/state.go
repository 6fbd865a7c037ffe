package store

import "github.com/fjod/go_booking/internal/domain"

// DraftState is UI-only: the slot picked while composing a booking.
// It is never persisted.
type DraftState struct {
	Selection *domain.TableSlotSelection `json:"selection"`
}

// State is the whole session tree.
type State struct {
	Auth           domain.AuthState
	AdminAuth      domain.AuthState
	BookingHistory []domain.BookingHistoryRecord
	Cart           domain.Cart
	Draft          DraftState
}

func InitialState() State {
	return State{
		BookingHistory: []domain.BookingHistoryRecord{},
		Cart:           domain.EmptyCart(),
	}
}

// Clone returns a deep copy; callers may keep it after further dispatches.
func (s State) Clone() State {
	out := State{
		Auth:           s.Auth.Clone(),
		AdminAuth:      s.AdminAuth.Clone(),
		BookingHistory: make([]domain.BookingHistoryRecord, len(s.BookingHistory)),
		Cart:           s.Cart.Clone(),
	}
	for i, rec := range s.BookingHistory {
		out.BookingHistory[i] = rec.Clone()
	}
	if s.Draft.Selection != nil {
		sel := *s.Draft.Selection
		out.Draft.Selection = &sel
	}
	return out
}

// FindBooking returns the record with the given id.
func (s State) FindBooking(id string) (domain.BookingHistoryRecord, bool) {
	for _, rec := range s.BookingHistory {
		if rec.ID == id {
			return rec, true
		}
	}
	return domain.BookingHistoryRecord{}, false
}
