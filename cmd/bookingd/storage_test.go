package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/fjod/go_booking/internal/config"
	"github.com/fjod/go_booking/internal/persist"
)

func sqliteConfig(t *testing.T) *config.Config {
	return &config.Config{
		Persist: config.PersistConfig{
			Backend:    config.BackendSQLite,
			Key:        persist.DefaultKey,
			SQLitePath: filepath.Join(t.TempDir(), "session.db"),
		},
		Breaker: config.BreakerConfig{Enabled: true, ConsecutiveFailures: 3},
	}
}

func TestOpenStorage_WrapsBackendInBreaker(t *testing.T) {
	storage, err := openStorage(context.Background(), sqliteConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer storage.Close()

	_, ok := storage.(*persist.BreakerStorage)
	assert.True(t, ok)

	ctx := context.Background()
	require.NoError(t, storage.Save(ctx, persist.DefaultKey, []byte(`{}`)))
	got, err := storage.Load(ctx, persist.DefaultKey)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(got))
}

func TestOpenStorage_BreakerDisabled(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Breaker.Enabled = false

	storage, err := openStorage(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer storage.Close()

	_, ok := storage.(*persist.SQLStorage)
	assert.True(t, ok)
}

func TestOpenStorage_UnknownBackend(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Persist.Backend = "etcd"

	_, err := openStorage(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unknown persist backend")
}
