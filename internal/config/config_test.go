package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "9090", cfg.GRPCPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, BackendSQLite, cfg.Persist.Backend)
	assert.Equal(t, "persist:root", cfg.Persist.Key)
	assert.Equal(t, 5*time.Second, cfg.Persist.WriteTimeout)
	assert.Equal(t, time.Duration(0), cfg.Redis.TTL)
	assert.True(t, cfg.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.Breaker.ConsecutiveFailures)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("BOOKING_HTTP_PORT", "9090")
	t.Setenv("BOOKING_GRPC_PORT", "")
	t.Setenv("BOOKING_PERSIST_BACKEND", "Redis")
	t.Setenv("BOOKING_REDIS_ADDR", "cache:6379")
	t.Setenv("BOOKING_REDIS_TTL", "720h")
	t.Setenv("BOOKING_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BOOKING_POSTGRES_PORT", "6543")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Empty(t, cfg.GRPCPort)
	assert.Equal(t, BackendRedis, cfg.Persist.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 720*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 6543, cfg.Postgres.Port)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("BOOKING_PERSIST_KEY=persist:kiosk-7\nBOOKING_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("BOOKING_PERSIST_KEY")
		os.Unsetenv("BOOKING_LOG_LEVEL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "persist:kiosk-7", cfg.Persist.Key)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingDotEnvIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoad_UnknownBackend(t *testing.T) {
	t.Setenv("BOOKING_PERSIST_BACKEND", "etcd")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown persist backend "etcd"`)
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		Persist: PersistConfig{Backend: BackendMongo},
		Kafka:   KafkaConfig{Brokers: []string{"k:9092"}},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOOKING_MONGO_URI")
	assert.Contains(t, err.Error(), "BOOKING_PERSIST_KEY")
	assert.Contains(t, err.Error(), "BOOKING_HTTP_PORT")
	assert.Contains(t, err.Error(), "kafka topics")
}
