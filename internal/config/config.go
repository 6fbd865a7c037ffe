package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "BOOKING"

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
)

// Config is read from BOOKING_* variables; nested structs add their own
// prefix, e.g. BOOKING_PERSIST_BACKEND or BOOKING_KAFKA_BROKERS.
type Config struct {
	HTTPPort           string        `split_words:"true" default:"8080"`
	GRPCPort           string        `split_words:"true" default:"9090"` // empty disables the staff gRPC surface
	RequestTimeout     time.Duration `split_words:"true" default:"30s"`
	ShutdownTimeout    time.Duration `split_words:"true" default:"10s"`
	MaxRequestBodySize int64         `split_words:"true" default:"1048576"`
	LogLevel           string        `split_words:"true" default:"info"`

	Persist  PersistConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Breaker  BreakerConfig
	Kafka    KafkaConfig
}

type PersistConfig struct {
	Backend      string        `default:"sqlite"`
	Key          string        `default:"persist:root"`
	WriteTimeout time.Duration `split_words:"true" default:"5s"`
	SQLitePath   string        `envconfig:"SQLITE_PATH" default:"booking-session.db"`
}

type PostgresConfig struct {
	Host     string `default:"localhost"`
	Port     int    `default:"5432"`
	User     string `default:"booking"`
	Password string
	Database string `default:"booking"`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
}

type RedisConfig struct {
	Addr     string `default:"localhost:6379"`
	Password string
	DB       int           `default:"0"`
	TTL      time.Duration `default:"0s"`
}

type MongoConfig struct {
	URI      string `default:"mongodb://localhost:27017"`
	Database string `default:"booking"`
}

type BreakerConfig struct {
	Enabled             bool          `default:"true"`
	ConsecutiveFailures uint32        `split_words:"true" default:"5"`
	OpenTimeout         time.Duration `split_words:"true" default:"30s"`
}

type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string `split_words:"true" default:"booking-events"`
	StatusTopic   string `split_words:"true" default:"booking-status"`
	ConsumerGroup string `split_words:"true" default:"bookingd"`
	BufferSize    int    `split_words:"true" default:"256"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Load reads envFile (when it exists) and then the BOOKING_* environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	cfg.Persist.Backend = strings.ToLower(strings.TrimSpace(cfg.Persist.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Persist.Backend {
	case BackendSQLite:
		if c.Persist.SQLitePath == "" {
			errs = append(errs, errors.New("BOOKING_PERSIST_SQLITE_PATH is required for the sqlite backend"))
		}
	case BackendPostgres:
		if c.Postgres.Host == "" || c.Postgres.Database == "" {
			errs = append(errs, errors.New("BOOKING_POSTGRES_HOST and BOOKING_POSTGRES_DATABASE are required for the postgres backend"))
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("BOOKING_REDIS_ADDR is required for the redis backend"))
		}
	case BackendMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			errs = append(errs, errors.New("BOOKING_MONGO_URI and BOOKING_MONGO_DATABASE are required for the mongo backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown persist backend %q", c.Persist.Backend))
	}

	if c.Persist.Key == "" {
		errs = append(errs, errors.New("BOOKING_PERSIST_KEY must not be empty"))
	}
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("BOOKING_HTTP_PORT must not be empty"))
	}
	if c.Kafka.Enabled() && (c.Kafka.EventsTopic == "" || c.Kafka.StatusTopic == "") {
		errs = append(errs, errors.New("kafka topics must not be empty when brokers are set"))
	}
	return errors.Join(errs...)
}
