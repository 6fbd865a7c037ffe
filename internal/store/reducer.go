package store

import (
	"fmt"

	"github.com/fjod/go_booking/internal/domain"
)

// reduce applies cmd to s in place and reports what changed; the caller
// fills in the resulting State. Commands that reference an absent id are
// no-ops, not errors.
func reduce(s *State, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case AddItem:
		return changed(addItem(&s.Cart, c.Item, c.Quantity)), nil
	case DecreaseQuantity:
		return changed(decreaseQuantity(&s.Cart, c.ItemID)), nil
	case RemoveItem:
		return changed(removeItem(&s.Cart, c.ItemID)), nil
	case ClearCart:
		return changed(clearCart(&s.Cart)), nil
	case SelectSlot:
		if s.Draft.Selection != nil && *s.Draft.Selection == c.Selection {
			return changed(false), nil
		}
		sel := c.Selection
		s.Draft.Selection = &sel
		return changed(true), nil
	case ClearSelection:
		if s.Draft.Selection == nil {
			return changed(false), nil
		}
		s.Draft.Selection = nil
		return changed(true), nil
	case DiscardDraft:
		hadSelection := s.Draft.Selection != nil
		s.Draft.Selection = nil
		return changed(clearCart(&s.Cart) || hadSelection), nil
	case CommitBooking:
		rec := domain.NewBookingRecord(c.BookingID, c.Selection, s.Cart, c.CreatedAt)
		s.BookingHistory = append([]domain.BookingHistoryRecord{rec}, s.BookingHistory...)
		s.Cart = domain.EmptyCart()
		s.Draft.Selection = nil
		return changed(true), nil
	case SetBookingStatus:
		prev, ok := setStatus(s.BookingHistory, c.BookingID, c.Status)
		return Result{Changed: ok, PreviousStatus: prev}, nil
	case ClearHistory:
		if len(s.BookingHistory) == 0 {
			return changed(false), nil
		}
		s.BookingHistory = []domain.BookingHistoryRecord{}
		return changed(true), nil
	case SetAuth:
		s.Auth = c.Auth.Clone()
		return changed(true), nil
	case ClearAuth:
		return changed(clearAuth(&s.Auth)), nil
	case SetAdminAuth:
		s.AdminAuth = c.Auth.Clone()
		return changed(true), nil
	case ClearAdminAuth:
		return changed(clearAuth(&s.AdminAuth)), nil
	case ResetPersisted:
		touched := clearAuth(&s.Auth)
		touched = clearAuth(&s.AdminAuth) || touched
		if len(s.BookingHistory) > 0 {
			s.BookingHistory = []domain.BookingHistoryRecord{}
			touched = true
		}
		return changed(clearCart(&s.Cart) || touched), nil
	default:
		return Result{}, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

func changed(ok bool) Result {
	return Result{Changed: ok}
}

func addItem(cart *domain.Cart, item domain.MenuItem, qty int) bool {
	if qty < 1 {
		return false
	}
	qty = min(qty, domain.MaxItemQuantity)
	if i := cart.Find(item.ID); i >= 0 {
		if cart.Items[i].Quantity >= domain.MaxItemQuantity {
			return false
		}
		cart.Items[i].Quantity = min(cart.Items[i].Quantity+qty, domain.MaxItemQuantity)
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  qty,
			ImageRef:  item.ImageRef,
		})
	}
	cart.Recalculate()
	return true
}

func decreaseQuantity(cart *domain.Cart, itemID string) bool {
	i := cart.Find(itemID)
	if i < 0 {
		return false
	}
	if cart.Items[i].Quantity <= 1 {
		cart.Items = deleteAt(cart.Items, i)
	} else {
		cart.Items[i].Quantity--
	}
	cart.Recalculate()
	return true
}

func removeItem(cart *domain.Cart, itemID string) bool {
	i := cart.Find(itemID)
	if i < 0 {
		return false
	}
	cart.Items = deleteAt(cart.Items, i)
	cart.Recalculate()
	return true
}

func clearCart(cart *domain.Cart) bool {
	if cart.IsEmpty() && cart.Total == 0 {
		return false
	}
	*cart = domain.EmptyCart()
	return true
}

// setStatus returns the status the booking had before the command, empty
// when id is absent.
func setStatus(history []domain.BookingHistoryRecord, id string, status domain.BookingStatus) (domain.BookingStatus, bool) {
	for i := range history {
		if history[i].ID != id {
			continue
		}
		prev := history[i].Status
		if prev == status {
			return prev, false
		}
		history[i].Status = status
		return prev, true
	}
	return "", false
}

func clearAuth(a *domain.AuthState) bool {
	if a.Token == "" && a.User == nil {
		return false
	}
	*a = domain.AuthState{}
	return true
}

// deleteAt removes index i without writing through to arrays shared with
// earlier snapshots.
func deleteAt(items []domain.CartItem, i int) []domain.CartItem {
	out := make([]domain.CartItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
