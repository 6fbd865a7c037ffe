package persist

import (
	"encoding/json"
	"fmt"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/store"
)

// EnvelopeVersion is written into every blob; blobs from a newer version
// are treated as corrupt rather than half-understood.
const EnvelopeVersion = 1

const (
	keyAuth           = "auth"
	keyAdminAuth      = "adminAuth"
	keyBookingHistory = "bookingHistory"
	keyCart           = "cart"
	keyMeta           = "_persist"
)

// Whitelist names the stores that survive a restart.
var Whitelist = []string{keyAuth, keyAdminAuth, keyBookingHistory, keyCart}

type envelopeMeta struct {
	Version int `json:"version"`
}

type envelope struct {
	Auth           domain.AuthState              `json:"auth"`
	AdminAuth      domain.AuthState              `json:"adminAuth"`
	BookingHistory []domain.BookingHistoryRecord `json:"bookingHistory"`
	Cart           domain.Cart                   `json:"cart"`
	Meta           envelopeMeta                  `json:"_persist"`
}

// Encode serializes the whitelisted part of st.
func Encode(st store.State) ([]byte, error) {
	history := st.BookingHistory
	if history == nil {
		history = []domain.BookingHistoryRecord{}
	}
	cart := st.Cart.Clone()
	return json.Marshal(envelope{
		Auth:           st.Auth,
		AdminAuth:      st.AdminAuth,
		BookingHistory: history,
		Cart:           cart,
		Meta:           envelopeMeta{Version: EnvelopeVersion},
	})
}

// Decode rebuilds a state from a blob. Stores missing from the blob start
// from their initial value; unknown keys are ignored. Any whitelisted value
// that does not decode makes the whole blob ErrCorruptBlob.
func Decode(payload []byte) (store.State, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return store.State{}, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	if raw == nil {
		return store.State{}, fmt.Errorf("%w: not an object", ErrCorruptBlob)
	}

	if m, ok := raw[keyMeta]; ok {
		var meta envelopeMeta
		if err := json.Unmarshal(m, &meta); err != nil {
			return store.State{}, fmt.Errorf("%w: %s: %v", ErrCorruptBlob, keyMeta, err)
		}
		if meta.Version > EnvelopeVersion {
			return store.State{}, fmt.Errorf("%w: unsupported version %d", ErrCorruptBlob, meta.Version)
		}
	}

	st := store.InitialState()
	fields := map[string]any{
		keyAuth:           &st.Auth,
		keyAdminAuth:      &st.AdminAuth,
		keyBookingHistory: &st.BookingHistory,
		keyCart:           &st.Cart,
	}
	for _, name := range Whitelist {
		value, ok := raw[name]
		if !ok || string(value) == "null" {
			continue
		}
		if err := json.Unmarshal(value, fields[name]); err != nil {
			return store.State{}, fmt.Errorf("%w: %s: %v", ErrCorruptBlob, name, err)
		}
	}

	if err := normalize(&st); err != nil {
		return store.State{}, err
	}
	return st, nil
}

func normalize(st *store.State) error {
	if st.BookingHistory == nil {
		st.BookingHistory = []domain.BookingHistoryRecord{}
	}
	for i := range st.BookingHistory {
		rec := &st.BookingHistory[i]
		if !rec.Status.IsValid() {
			return fmt.Errorf("%w: booking %s has status %q", ErrCorruptBlob, rec.ID, rec.Status)
		}
		if rec.MenuItems == nil {
			rec.MenuItems = []domain.CartItem{}
		}
	}

	if st.Cart.Items == nil {
		st.Cart.Items = []domain.CartItem{}
	}
	seen := make(map[string]bool, len(st.Cart.Items))
	for _, item := range st.Cart.Items {
		if item.Quantity < 1 || seen[item.ID] {
			return fmt.Errorf("%w: invalid cart line %q", ErrCorruptBlob, item.ID)
		}
		seen[item.ID] = true
	}
	st.Cart.Recalculate()
	return nil
}
