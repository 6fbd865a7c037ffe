package persist

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fjod/go_booking/pkg/circuitbreaker"
)

// BreakerStorage fails fast while the wrapped backend keeps failing, so a
// dead backend costs a write nothing but an error.
type BreakerStorage struct {
	inner   Storage
	breaker *circuitbreaker.Breaker[[]byte]
}

func NewBreakerStorage(inner Storage, settings circuitbreaker.Settings, logger *zap.Logger) *BreakerStorage {
	if settings.Name == "" {
		settings.Name = "persist"
	}
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrBlobNotFound)
	}
	settings.OnStateChange = func(name string, from, to circuitbreaker.State) {
		logger.Warn("storage circuit breaker state changed",
			zap.String("breaker", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	return &BreakerStorage{
		inner:   inner,
		breaker: circuitbreaker.New[[]byte](settings),
	}
}

func (b *BreakerStorage) Load(ctx context.Context, key string) ([]byte, error) {
	return b.breaker.Execute(func() ([]byte, error) {
		return b.inner.Load(ctx, key)
	})
}

func (b *BreakerStorage) Save(ctx context.Context, key string, payload []byte) error {
	_, err := b.breaker.Execute(func() ([]byte, error) {
		return nil, b.inner.Save(ctx, key, payload)
	})
	return err
}

func (b *BreakerStorage) Delete(ctx context.Context, key string) error {
	_, err := b.breaker.Execute(func() ([]byte, error) {
		return nil, b.inner.Delete(ctx, key)
	})
	return err
}

func (b *BreakerStorage) State() circuitbreaker.State {
	return b.breaker.State()
}

func (b *BreakerStorage) Close() error {
	return b.inner.Close()
}
