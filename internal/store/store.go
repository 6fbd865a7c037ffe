package store

import (
	"sync"

	"github.com/fjod/go_booking/internal/domain"
)

// Listener receives the state after every dispatch that changed something.
// Listeners run on the dispatching goroutine and must not call Dispatch.
type Listener func(State)

// Result is what a dispatch produced.
type Result struct {
	State   State
	Changed bool
	// PreviousStatus is set by SetBookingStatus when the booking exists.
	PreviousStatus domain.BookingStatus
}

// Store is the session state container. It is constructed empty, becomes
// usable after Init and rejects everything after Dispose.
type Store struct {
	dispatchMu sync.Mutex // serializes Dispatch, Init and Dispose

	mu          sync.RWMutex
	state       State
	initialized bool
	disposed    bool
	listeners   map[uint64]Listener
	order       []uint64
	nextID      uint64
}

func New() *Store {
	return &Store{listeners: make(map[uint64]Listener)}
}

// Init seeds the store, typically with a rehydrated state.
func (s *Store) Init(initial State) error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrDisposed
	}
	if s.initialized {
		return ErrAlreadyInitialized
	}
	s.state = initial.Clone()
	s.initialized = true
	return nil
}

// Dispatch applies cmd and notifies listeners if the state changed.
// Commands are applied one at a time in call order.
func (s *Store) Dispatch(cmd Command) (Result, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	res, err := reduce(&s.state, cmd)
	if err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	res.State = s.state.Clone()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	if res.Changed {
		for _, l := range listeners {
			l(res.State)
		}
	}
	return res, nil
}

// State returns a deep copy of the current state.
func (s *Store) State() (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.usableLocked(); err != nil {
		return State{}, err
	}
	return s.state.Clone(), nil
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.listeners[id]; !ok {
			return
		}
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// Dispose drops all listeners. Further calls return ErrDisposed.
func (s *Store) Dispose() error {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrDisposed
	}
	s.disposed = true
	s.listeners = make(map[uint64]Listener)
	s.order = nil
	return nil
}

func (s *Store) usableLocked() error {
	if s.disposed {
		return ErrDisposed
	}
	if !s.initialized {
		return ErrNotInitialized
	}
	return nil
}

func (s *Store) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.listeners[id])
	}
	return out
}
