package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fjod/go_booking/internal/domain"
	"github.com/fjod/go_booking/internal/store"
)

type memoryStorage struct {
	m       sync.RWMutex
	blobs   map[string][]byte
	saves   int
	loads   int
	saveErr   error
	loadErr   error
	deleteErr error
	gate    chan struct{} // when set, Save waits on it
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{blobs: make(map[string][]byte)}
}

func (s *memoryStorage) Load(_ context.Context, key string) ([]byte, error) {
	s.m.Lock()
	defer s.m.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	blob, ok := s.blobs[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (s *memoryStorage) Save(_ context.Context, key string, payload []byte) error {
	s.m.RLock()
	gate := s.gate
	s.m.RUnlock()
	if gate != nil {
		<-gate
	}

	s.m.Lock()
	defer s.m.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.blobs[key] = append([]byte(nil), payload...)
	return nil
}

func (s *memoryStorage) Delete(_ context.Context, key string) error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.blobs, key)
	return nil
}

func (s *memoryStorage) Close() error { return nil }

func (s *memoryStorage) blob(key string) ([]byte, bool) {
	s.m.RLock()
	defer s.m.RUnlock()
	b, ok := s.blobs[key]
	return b, ok
}

func (s *memoryStorage) saveCount() int {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.saves
}

func attachedStore(t *testing.T, p *Persistor) *store.Store {
	t.Helper()
	st := store.New()
	require.NoError(t, st.Init(p.Rehydrate(context.Background())))
	p.Attach(st)
	t.Cleanup(func() { _ = p.Close() })
	return st
}

func persistedCartTotal(storage *memoryStorage) int64 {
	blob, ok := storage.blob(DefaultKey)
	if !ok {
		return -1
	}
	st, err := Decode(blob)
	if err != nil {
		return -2
	}
	return st.Cart.Total
}

var cola = domain.MenuItem{ID: "cola", Name: "Cola", UnitPrice: 5000}

func TestPersistor_RehydrateAbsentBlob(t *testing.T) {
	p := NewPersistor(newMemoryStorage(), zaptest.NewLogger(t), Options{})
	assert.Equal(t, store.InitialState(), p.Rehydrate(context.Background()))
}

func TestPersistor_RehydrateCorruptOrUnreadable(t *testing.T) {
	storage := newMemoryStorage()
	storage.blobs[DefaultKey] = []byte(`{"cart":{"items":"garbage"},"bookingHistory":[]}`)
	p := NewPersistor(storage, zaptest.NewLogger(t), Options{})
	assert.Equal(t, store.InitialState(), p.Rehydrate(context.Background()))

	storage.loadErr = errors.New("disk on fire")
	assert.Equal(t, store.InitialState(), p.Rehydrate(context.Background()))
	assert.Equal(t, int64(1), p.Failures())
}

func TestPersistor_WritesAfterMutation(t *testing.T) {
	storage := newMemoryStorage()
	p := NewPersistor(storage, zaptest.NewLogger(t), Options{})
	st := attachedStore(t, p)

	_, err := st.Dispatch(store.AddItem{Item: cola, Quantity: 3})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return persistedCartTotal(storage) == 15000
	}, time.Second, 5*time.Millisecond)
}

func TestPersistor_CoalescesBursts(t *testing.T) {
	storage := newMemoryStorage()
	storage.gate = make(chan struct{})
	p := NewPersistor(storage, zaptest.NewLogger(t), Options{})
	st := attachedStore(t, p)

	for i := 0; i < 100; i++ {
		_, err := st.Dispatch(store.AddItem{Item: cola, Quantity: 1})
		require.NoError(t, err)
	}
	close(storage.gate)

	require.Eventually(t, func() bool {
		return persistedCartTotal(storage) == 100*5000
	}, time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, storage.saveCount(), 3)
}

func TestPersistor_SaveFailureDoesNotFailMutation(t *testing.T) {
	storage := newMemoryStorage()
	storage.saveErr = errors.New("backend down")
	p := NewPersistor(storage, zaptest.NewLogger(t), Options{})
	st := attachedStore(t, p)

	res, err := st.Dispatch(store.AddItem{Item: cola, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), res.State.Cart.Total)

	require.Eventually(t, func() bool { return p.Failures() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestPersistor_RestartRestoresWhitelistOnly(t *testing.T) {
	storage := newMemoryStorage()
	p := NewPersistor(storage, zaptest.NewLogger(t), Options{})
	st := attachedStore(t, p)

	for _, cmd := range []store.Command{
		store.SetAuth{Auth: domain.AuthState{Token: "tok", User: &domain.User{ID: "u-1"}}},
		store.AddItem{Item: cola, Quantity: 1},
		store.CommitBooking{BookingID: "b-1", Selection: window, CreatedAt: time.Date(2026, 10, 16, 18, 0, 0, 0, time.UTC)},
		store.AddItem{Item: cola, Quantity: 2},
		store.SelectSlot{Selection: window},
	} {
		_, err := st.Dispatch(cmd)
		require.NoError(t, err)
	}
	require.NoError(t, p.Flush(context.Background()))
	before, err := st.State()
	require.NoError(t, err)

	restored := NewPersistor(storage, zaptest.NewLogger(t), Options{}).Rehydrate(context.Background())

	want := before.Clone()
	want.Draft = store.DraftState{}
	assert.Equal(t, want, restored)
	assert.Equal(t, "b-1", restored.BookingHistory[0].ID)
	assert.Equal(t, int64(10000), restored.Cart.Total)
}

func TestPersistor_PurgeDeletesAndResets(t *testing.T) {
	storage := newMemoryStorage()
	p := NewPersistor(storage, zaptest.NewLogger(t), Options{})
	st := attachedStore(t, p)

	_, err := st.Dispatch(store.AddItem{Item: cola, Quantity: 1})
	require.NoError(t, err)
	_, err = st.Dispatch(store.CommitBooking{BookingID: "b-1", Selection: window})
	require.NoError(t, err)
	require.NoError(t, p.Flush(context.Background()))
	_, ok := storage.blob(DefaultKey)
	require.True(t, ok)

	storage.m.Lock()
	storage.gate = make(chan struct{})
	storage.m.Unlock()
	_, err = st.Dispatch(store.AddItem{Item: cola, Quantity: 4})
	require.NoError(t, err)

	purged := make(chan error, 1)
	go func() { purged <- p.Purge(context.Background(), st) }()
	close(storage.gate)
	require.NoError(t, <-purged)

	// give a stale write the chance to land
	time.Sleep(50 * time.Millisecond)
	_, ok = storage.blob(DefaultKey)
	assert.False(t, ok)

	cur, err := st.State()
	require.NoError(t, err)
	assert.Empty(t, cur.BookingHistory)
	assert.Empty(t, cur.Cart.Items)

	fresh := NewPersistor(storage, zaptest.NewLogger(t), Options{}).Rehydrate(context.Background())
	assert.Equal(t, store.InitialState(), fresh)
}

func TestPersistor_FailedPurgeIsOverwrittenOnceBackendRecovers(t *testing.T) {
	storage := newMemoryStorage()
	p := NewPersistor(storage, zaptest.NewLogger(t), Options{})
	st := attachedStore(t, p)

	_, err := st.Dispatch(store.SetAuth{Auth: domain.AuthState{Token: "tok", User: &domain.User{ID: "u-1"}}})
	require.NoError(t, err)
	_, err = st.Dispatch(store.CommitBooking{BookingID: "b-1", Selection: window})
	require.NoError(t, err)
	require.NoError(t, p.Flush(context.Background()))

	storage.m.Lock()
	storage.deleteErr = errors.New("backend down")
	storage.saveErr = errors.New("backend down")
	storage.m.Unlock()

	var perr *PersistenceError
	require.ErrorAs(t, p.Purge(context.Background(), st), &perr)
	assert.Equal(t, "delete", perr.Op)

	storage.m.Lock()
	storage.deleteErr = nil
	storage.saveErr = nil
	storage.m.Unlock()

	require.NoError(t, p.Close())

	fresh := NewPersistor(storage, zaptest.NewLogger(t), Options{}).Rehydrate(context.Background())
	assert.Empty(t, fresh.BookingHistory)
	assert.False(t, fresh.Auth.IsAuthenticated())
}

func TestPersistor_PurgeWithoutStoreLeavesEmptyEnvelopePending(t *testing.T) {
	storage := newMemoryStorage()
	storage.blobs[DefaultKey] = []byte(`{"cart":{"items":[{"id":"cola","name":"Cola","unit_price":5000,"quantity":1}],"total":5000}}`)
	storage.deleteErr = errors.New("backend down")
	p := NewPersistor(storage, zaptest.NewLogger(t), Options{})

	require.Error(t, p.Purge(context.Background(), nil))

	storage.m.Lock()
	storage.deleteErr = nil
	storage.m.Unlock()
	require.NoError(t, p.Flush(context.Background()))

	assert.Equal(t, int64(0), persistedCartTotal(storage))
}

func TestPersistor_CloseFlushesPending(t *testing.T) {
	storage := newMemoryStorage()
	storage.gate = make(chan struct{})
	p := NewPersistor(storage, zaptest.NewLogger(t), Options{})
	st := store.New()
	require.NoError(t, st.Init(store.InitialState()))
	p.Attach(st)

	_, err := st.Dispatch(store.AddItem{Item: cola, Quantity: 1})
	require.NoError(t, err)
	_, err = st.Dispatch(store.AddItem{Item: cola, Quantity: 1})
	require.NoError(t, err)
	close(storage.gate)

	require.NoError(t, p.Close())
	assert.Equal(t, int64(10000), persistedCartTotal(storage))
}
