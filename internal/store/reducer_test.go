package store

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_booking/internal/domain"
)

var (
	steak = domain.MenuItem{ID: "steak", Name: "Steak", UnitPrice: 30000, ImageRef: "steak.png"}
	cola  = domain.MenuItem{ID: "cola", Name: "Cola", UnitPrice: 5000, ImageRef: "cola.png"}
	fries = domain.MenuItem{ID: "fries", Name: "Fries", UnitPrice: 1250}

	window = domain.TableSlotSelection{
		TableID:       "t-1",
		TableName:     "Window",
		PricePerHour:  75000,
		DurationHours: 2,
		Date:          "2026-10-20",
		Time:          "19:30",
	}
)

func mustReduce(t *testing.T, s *State, cmd Command) bool {
	t.Helper()
	res, err := reduce(s, cmd)
	require.NoError(t, err)
	return res.Changed
}

func sumSubtotals(items []domain.CartItem) int64 {
	var total int64
	for _, it := range items {
		total += it.UnitPrice * int64(it.Quantity)
	}
	return total
}

func TestReduce_AddItemMergesQuantities(t *testing.T) {
	s := InitialState()

	assert.True(t, mustReduce(t, &s, AddItem{Item: steak, Quantity: 1}))
	assert.True(t, mustReduce(t, &s, AddItem{Item: cola, Quantity: 2}))
	assert.True(t, mustReduce(t, &s, AddItem{Item: steak, Quantity: 3}))

	require.Len(t, s.Cart.Items, 2)
	assert.Equal(t, "steak", s.Cart.Items[0].ID)
	assert.Equal(t, 4, s.Cart.Items[0].Quantity)
	assert.Equal(t, "cola", s.Cart.Items[1].ID)
	assert.Equal(t, int64(4*30000+2*5000), s.Cart.Total)
}

func TestReduce_AddItemCapsMergedQuantity(t *testing.T) {
	s := InitialState()

	assert.True(t, mustReduce(t, &s, AddItem{Item: steak, Quantity: 90}))
	assert.True(t, mustReduce(t, &s, AddItem{Item: steak, Quantity: 90}))
	require.Len(t, s.Cart.Items, 1)
	assert.Equal(t, domain.MaxItemQuantity, s.Cart.Items[0].Quantity)

	assert.False(t, mustReduce(t, &s, AddItem{Item: steak, Quantity: 1}))
	assert.Equal(t, domain.MaxItemQuantity, s.Cart.Items[0].Quantity)

	assert.True(t, mustReduce(t, &s, AddItem{Item: cola, Quantity: 1 << 40}))
	assert.Equal(t, domain.MaxItemQuantity, s.Cart.Items[1].Quantity)
	assert.Equal(t, sumSubtotals(s.Cart.Items), s.Cart.Total)
}

func TestReduce_AddItemIgnoresNonPositiveQuantity(t *testing.T) {
	s := InitialState()

	assert.False(t, mustReduce(t, &s, AddItem{Item: steak, Quantity: 0}))
	assert.False(t, mustReduce(t, &s, AddItem{Item: steak, Quantity: -2}))
	assert.Empty(t, s.Cart.Items)
	assert.Zero(t, s.Cart.Total)
}

func TestReduce_DecreaseToZeroRemoves(t *testing.T) {
	s := InitialState()
	mustReduce(t, &s, AddItem{Item: cola, Quantity: 2})

	assert.True(t, mustReduce(t, &s, DecreaseQuantity{ItemID: "cola"}))
	require.Len(t, s.Cart.Items, 1)
	assert.Equal(t, 1, s.Cart.Items[0].Quantity)
	assert.Equal(t, int64(5000), s.Cart.Total)

	assert.True(t, mustReduce(t, &s, DecreaseQuantity{ItemID: "cola"}))
	assert.Empty(t, s.Cart.Items)
	assert.Zero(t, s.Cart.Total)

	assert.False(t, mustReduce(t, &s, DecreaseQuantity{ItemID: "cola"}))
	assert.Empty(t, s.Cart.Items)
}

func TestReduce_AbsentIDsAreNoOps(t *testing.T) {
	s := InitialState()
	mustReduce(t, &s, AddItem{Item: steak, Quantity: 1})
	before := s.Clone()

	assert.False(t, mustReduce(t, &s, RemoveItem{ItemID: "missing"}))
	assert.False(t, mustReduce(t, &s, DecreaseQuantity{ItemID: "missing"}))
	assert.False(t, mustReduce(t, &s, SetBookingStatus{BookingID: "missing", Status: domain.BookingStatusCancelled}))
	assert.Equal(t, before, s)
}

func TestReduce_TotalInvariantOverRandomSequences(t *testing.T) {
	menu := []domain.MenuItem{steak, cola, fries}
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		s := InitialState()
		for step := 0; step < 200; step++ {
			item := menu[rng.Intn(len(menu))]
			var cmd Command
			switch rng.Intn(4) {
			case 0, 1:
				cmd = AddItem{Item: item, Quantity: rng.Intn(4)}
			case 2:
				cmd = DecreaseQuantity{ItemID: item.ID}
			default:
				cmd = RemoveItem{ItemID: item.ID}
			}
			mustReduce(t, &s, cmd)

			require.Equal(t, sumSubtotals(s.Cart.Items), s.Cart.Total, "run %d step %d", run, step)
			seen := make(map[string]bool)
			for _, it := range s.Cart.Items {
				require.False(t, seen[it.ID], "duplicate id %s", it.ID)
				require.GreaterOrEqual(t, it.Quantity, 1)
				seen[it.ID] = true
			}
		}
	}
}

func TestReduce_CommitBookingIsAtomic(t *testing.T) {
	s := InitialState()
	mustReduce(t, &s, AddItem{Item: steak, Quantity: 1})
	mustReduce(t, &s, AddItem{Item: cola, Quantity: 1})
	mustReduce(t, &s, SelectSlot{Selection: window})
	createdAt := time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)

	assert.True(t, mustReduce(t, &s, CommitBooking{BookingID: "b-1", Selection: window, CreatedAt: createdAt}))

	require.Len(t, s.BookingHistory, 1)
	head := s.BookingHistory[0]
	assert.Equal(t, "b-1", head.ID)
	assert.Equal(t, int64(185000), head.GrandTotal)
	assert.Equal(t, int64(35000), head.MenuSubtotal)
	assert.Equal(t, domain.BookingStatusUpcoming, head.Status)
	assert.Equal(t, createdAt, head.CreatedAt)
	assert.Empty(t, s.Cart.Items)
	assert.Zero(t, s.Cart.Total)
	assert.Nil(t, s.Draft.Selection)
}

func TestReduce_CommitPrependsNewestFirst(t *testing.T) {
	s := InitialState()
	mustReduce(t, &s, CommitBooking{BookingID: "first", Selection: window})
	mustReduce(t, &s, CommitBooking{BookingID: "second", Selection: window})

	require.Len(t, s.BookingHistory, 2)
	assert.Equal(t, "second", s.BookingHistory[0].ID)
	assert.Equal(t, "first", s.BookingHistory[1].ID)
}

func TestReduce_SetBookingStatusIsIdempotent(t *testing.T) {
	s := InitialState()
	mustReduce(t, &s, CommitBooking{BookingID: "b-1", Selection: window})

	assert.True(t, mustReduce(t, &s, SetBookingStatus{BookingID: "b-1", Status: domain.BookingStatusCompleted}))
	assert.False(t, mustReduce(t, &s, SetBookingStatus{BookingID: "b-1", Status: domain.BookingStatusCompleted}))
	assert.Equal(t, domain.BookingStatusCompleted, s.BookingHistory[0].Status)
}

func TestReduce_DiscardDraftClearsCartAndSelection(t *testing.T) {
	s := InitialState()
	mustReduce(t, &s, AddItem{Item: steak, Quantity: 1})
	mustReduce(t, &s, SelectSlot{Selection: window})

	assert.True(t, mustReduce(t, &s, DiscardDraft{}))
	assert.Empty(t, s.Cart.Items)
	assert.Nil(t, s.Draft.Selection)
	assert.False(t, mustReduce(t, &s, DiscardDraft{}))
}

func TestReduce_SelectSameSlotIsUnchanged(t *testing.T) {
	s := InitialState()
	assert.True(t, mustReduce(t, &s, SelectSlot{Selection: window}))
	assert.False(t, mustReduce(t, &s, SelectSlot{Selection: window}))

	longer := window
	longer.DurationHours = 3
	assert.True(t, mustReduce(t, &s, SelectSlot{Selection: longer}))
	assert.Equal(t, 3, s.Draft.Selection.DurationHours)
}

func TestReduce_ResetPersistedKeepsDraftSelection(t *testing.T) {
	s := InitialState()
	mustReduce(t, &s, SetAuth{Auth: domain.AuthState{Token: "tok", User: &domain.User{ID: "u-1"}}})
	mustReduce(t, &s, SetAdminAuth{Auth: domain.AuthState{Token: "adm", User: &domain.User{ID: "a-1"}}})
	mustReduce(t, &s, AddItem{Item: steak, Quantity: 1})
	mustReduce(t, &s, CommitBooking{BookingID: "b-1", Selection: window})
	mustReduce(t, &s, SelectSlot{Selection: window})

	assert.True(t, mustReduce(t, &s, ResetPersisted{}))

	want := InitialState()
	want.Draft = s.Draft
	assert.Equal(t, want, s)
	assert.False(t, mustReduce(t, &s, ResetPersisted{}))
}

func TestReduce_SetBookingStatusReportsPreviousStatus(t *testing.T) {
	s := InitialState()
	mustReduce(t, &s, CommitBooking{BookingID: "b-1", Selection: window})

	res, err := reduce(&s, SetBookingStatus{BookingID: "b-1", Status: domain.BookingStatusCompleted})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, domain.BookingStatusUpcoming, res.PreviousStatus)

	res, err = reduce(&s, SetBookingStatus{BookingID: "b-1", Status: domain.BookingStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusCompleted, res.PreviousStatus)

	res, err = reduce(&s, SetBookingStatus{BookingID: "missing", Status: domain.BookingStatusCancelled})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, res.PreviousStatus)
}

type bogusCommand struct{ Command }

func TestReduce_UnknownCommand(t *testing.T) {
	s := InitialState()
	_, err := reduce(&s, bogusCommand{})
	assert.ErrorIs(t, err, ErrUnknownCommand)
}
