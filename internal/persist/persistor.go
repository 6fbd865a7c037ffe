package persist

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_booking/internal/store"
)

// Source is the store a Persistor follows.
type Source interface {
	Dispatch(cmd store.Command) (store.Result, error)
	Subscribe(l store.Listener) func()
}

type Options struct {
	Key          string
	WriteTimeout time.Duration
}

// Persistor mirrors the whitelisted stores into Storage. Writes happen on a
// background goroutine after the in-memory mutation and are coalesced: a
// burst of dispatches produces one write of the latest state.
type Persistor struct {
	storage      Storage
	key          string
	writeTimeout time.Duration
	logger       *zap.Logger

	sfg singleflight.Group

	writeMu sync.Mutex // held for every Save and Delete
	dirty   atomic.Bool
	latest  atomic.Pointer[store.State]
	signal  chan struct{}

	mu          sync.Mutex
	unsubscribe func()
	done        chan struct{}
	wg          sync.WaitGroup

	failures atomic.Int64
}

func NewPersistor(storage Storage, logger *zap.Logger, opts Options) *Persistor {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Persistor{
		storage:      storage,
		key:          opts.Key,
		writeTimeout: opts.WriteTimeout,
		logger:       logger.Named("persist"),
		signal:       make(chan struct{}, 1),
	}
}

func (p *Persistor) Key() string {
	return p.key
}

// Failures counts durable operations that failed since construction.
func (p *Persistor) Failures() int64 {
	return p.failures.Load()
}

// Rehydrate loads the persisted state. An absent, unreadable or corrupt blob
// yields InitialState; a blob is never applied partially.
func (p *Persistor) Rehydrate(ctx context.Context) store.State {
	v, _, _ := p.sfg.Do(p.key, func() (interface{}, error) {
		payload, err := p.storage.Load(ctx, p.key)
		if errors.Is(err, ErrBlobNotFound) {
			p.logger.Info("no persisted session, starting fresh", zap.String("key", p.key))
			return store.InitialState(), nil
		}
		if err != nil {
			p.failures.Add(1)
			p.logger.Warn("persisted session unreadable, starting fresh",
				zap.Error(&PersistenceError{Op: "load", Key: p.key, Err: err}))
			return store.InitialState(), nil
		}

		st, err := Decode(payload)
		if err != nil {
			p.logger.Warn("persisted session corrupt, starting fresh", zap.String("key", p.key), zap.Error(err))
			return store.InitialState(), nil
		}
		p.logger.Info("session rehydrated",
			zap.String("key", p.key),
			zap.Int("bookings", len(st.BookingHistory)),
			zap.Int("cart_items", len(st.Cart.Items)),
		)
		return st, nil
	})
	return v.(store.State).Clone()
}

// Attach subscribes to src and starts the background writer.
func (p *Persistor) Attach(src Source) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.unsubscribe != nil {
		return
	}
	p.done = make(chan struct{})
	p.unsubscribe = src.Subscribe(p.onChange)

	p.wg.Add(1)
	go p.writeLoop(p.done)
}

func (p *Persistor) onChange(st store.State) {
	p.latest.Store(&st)
	p.dirty.Store(true)
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *Persistor) writeLoop(done <-chan struct{}) {
	defer p.wg.Done()

	for {
		select {
		case <-p.signal:
			ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
			if err := p.write(ctx); err != nil {
				p.logger.Warn("persist write failed", zap.Error(err))
			}
			cancel()
		case <-done:
			return
		}
	}
}

// write saves the latest state if anything changed since the last write.
func (p *Persistor) write(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if !p.dirty.Swap(false) {
		return nil
	}
	st := p.latest.Load()
	if st == nil {
		return nil
	}

	payload, err := Encode(*st)
	if err != nil {
		p.failures.Add(1)
		return &PersistenceError{Op: "encode", Key: p.key, Err: err}
	}
	if err := p.storage.Save(ctx, p.key, payload); err != nil {
		// retried by the next write, Flush or Close
		p.dirty.Store(true)
		p.failures.Add(1)
		return &PersistenceError{Op: "save", Key: p.key, Err: err}
	}
	return nil
}

// Flush writes any pending change synchronously.
func (p *Persistor) Flush(ctx context.Context) error {
	return p.write(ctx)
}

// Purge resets the whitelisted stores in src and deletes the blob. A write
// still pending for the old state is dropped so it cannot bring the data back.
// The in-memory reset happens even when the delete fails; the reset state then
// stays pending and the next write overwrites the old blob with it.
func (p *Persistor) Purge(ctx context.Context, src Source) error {
	reset := store.InitialState()
	if src != nil {
		res, err := src.Dispatch(store.ResetPersisted{})
		if err != nil {
			return err
		}
		reset = res.State
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.dirty.Store(false)
	if err := p.storage.Delete(ctx, p.key); err != nil {
		// an attached persistor already holds the reset (or a newer) state
		p.latest.CompareAndSwap(nil, &reset)
		p.dirty.Store(true)
		p.failures.Add(1)
		perr := &PersistenceError{Op: "delete", Key: p.key, Err: err}
		p.logger.Warn("persist purge failed, reset state left pending", zap.Error(perr))
		return perr
	}
	p.logger.Info("persisted session purged", zap.String("key", p.key))
	return nil
}

// Close detaches from the store, stops the writer and flushes what is left.
func (p *Persistor) Close() error {
	p.mu.Lock()
	if p.unsubscribe == nil {
		p.mu.Unlock()
		return nil
	}
	p.unsubscribe()
	p.unsubscribe = nil
	close(p.done)
	p.mu.Unlock()

	p.wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()
	return p.write(ctx)
}
