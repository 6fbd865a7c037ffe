// Package circuitbreaker wraps gobreaker with the settings used across the
// services: trip after a run of consecutive failures, allow a trial call after a timeout.
package circuitbreaker

import (
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrOpen is returned while the breaker rejects calls.
var ErrOpen = gobreaker.ErrOpenState

type Settings struct {
	Name string
	// ConsecutiveFailures trips the breaker. Defaults to 5.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before a trial call. Defaults to 30s.
	Timeout time.Duration
	// MaxRequests allowed while half-open. Defaults to 1.
	MaxRequests uint32
	// IsSuccessful decides which errors count as failures. Defaults to err == nil.
	IsSuccessful  func(err error) bool
	OnStateChange func(name string, from, to State)
}

type State = gobreaker.State

const (
	StateClosed   = gobreaker.StateClosed
	StateHalfOpen = gobreaker.StateHalfOpen
	StateOpen     = gobreaker.StateOpen
)

type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

func New[T any](s Settings) *Breaker[T] {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	threshold := s.ConsecutiveFailures

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful:  s.IsSuccessful,
		OnStateChange: s.OnStateChange,
	})}
}

// Execute runs fn unless the breaker is open.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	return b.cb.Execute(fn)
}

func (b *Breaker[T]) State() State {
	return b.cb.State()
}

func (b *Breaker[T]) Name() string {
	return b.cb.Name()
}

// IsRejected reports whether err came from the breaker rather than from fn.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
