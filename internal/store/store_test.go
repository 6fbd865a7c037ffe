package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_booking/internal/domain"
)

func newInitialized(t *testing.T) *Store {
	t.Helper()
	s := New()
	require.NoError(t, s.Init(InitialState()))
	return s
}

func TestStore_Lifecycle(t *testing.T) {
	s := New()

	_, err := s.Dispatch(ClearCart{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.State()
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, s.Init(InitialState()))
	assert.ErrorIs(t, s.Init(InitialState()), ErrAlreadyInitialized)

	require.NoError(t, s.Dispose())
	_, err = s.Dispatch(ClearCart{})
	assert.ErrorIs(t, err, ErrDisposed)
	assert.ErrorIs(t, s.Dispose(), ErrDisposed)
	assert.ErrorIs(t, s.Init(InitialState()), ErrDisposed)
}

func TestStore_InitCopiesSeed(t *testing.T) {
	seed := InitialState()
	seed.Cart.Items = append(seed.Cart.Items, domain.CartItem{ID: "steak", UnitPrice: 30000, Quantity: 1})
	seed.Cart.Total = 30000

	s := New()
	require.NoError(t, s.Init(seed))
	seed.Cart.Items[0].Quantity = 7

	st, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Cart.Items[0].Quantity)
}

func TestStore_ListenersOnlySeeChanges(t *testing.T) {
	s := newInitialized(t)

	var mu sync.Mutex
	var seen []int64
	s.Subscribe(func(st State) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, st.Cart.Total)
	})

	res, err := s.Dispatch(AddItem{Item: steak, Quantity: 1})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = s.Dispatch(RemoveItem{ItemID: "missing"})
	require.NoError(t, err)
	assert.False(t, res.Changed)

	_, err = s.Dispatch(AddItem{Item: cola, Quantity: 1})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{30000, 35000}, seen)
}

func TestStore_Unsubscribe(t *testing.T) {
	s := newInitialized(t)

	calls := 0
	unsubscribe := s.Subscribe(func(State) { calls++ })
	other := 0
	s.Subscribe(func(State) { other++ })

	_, err := s.Dispatch(AddItem{Item: steak, Quantity: 1})
	require.NoError(t, err)
	unsubscribe()
	unsubscribe()
	_, err = s.Dispatch(AddItem{Item: steak, Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}

func TestStore_SnapshotIndependence(t *testing.T) {
	s := newInitialized(t)
	_, err := s.Dispatch(AddItem{Item: steak, Quantity: 1})
	require.NoError(t, err)
	_, err = s.Dispatch(SelectSlot{Selection: window})
	require.NoError(t, err)

	res, err := s.Dispatch(CommitBooking{BookingID: "b-1", Selection: window})
	require.NoError(t, err)
	record := res.State.BookingHistory[0]

	_, err = s.Dispatch(AddItem{Item: steak, Quantity: 5})
	require.NoError(t, err)
	_, err = s.Dispatch(AddItem{Item: cola, Quantity: 1})
	require.NoError(t, err)

	st, err := s.State()
	require.NoError(t, err)
	require.Len(t, st.BookingHistory[0].MenuItems, 1)
	assert.Equal(t, 1, st.BookingHistory[0].MenuItems[0].Quantity)
	assert.Equal(t, record, st.BookingHistory[0])

	st.BookingHistory[0].MenuItems[0].Quantity = 99
	again, err := s.State()
	require.NoError(t, err)
	assert.Equal(t, 1, again.BookingHistory[0].MenuItems[0].Quantity)
}

func TestStore_ConcurrentDispatchKeepsTotal(t *testing.T) {
	s := newInitialized(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = s.Dispatch(AddItem{Item: cola, Quantity: 1})
			}
		}()
	}
	wg.Wait()

	st, err := s.State()
	require.NoError(t, err)
	require.Len(t, st.Cart.Items, 1)
	assert.Equal(t, 1000, st.Cart.Items[0].Quantity)
	assert.Equal(t, int64(1000*5000), st.Cart.Total)
}

func TestStore_ListenersRunInDispatchOrder(t *testing.T) {
	s := newInitialized(t)

	var order []string
	s.Subscribe(func(State) { order = append(order, "a") })
	s.Subscribe(func(State) { order = append(order, "b") })

	_, err := s.Dispatch(AddItem{Item: fries, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
}
