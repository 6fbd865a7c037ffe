package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fjod/go_booking/internal/config"
	"github.com/fjod/go_booking/internal/persist"
	"github.com/fjod/go_booking/pkg/circuitbreaker"
)

// openStorage connects the configured backend, wrapped in a circuit breaker
// unless that is switched off.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (persist.Storage, error) {
	storage, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if !cfg.Breaker.Enabled {
		return storage, nil
	}
	return persist.NewBreakerStorage(storage, circuitbreaker.Settings{
		Name:                "persist-" + cfg.Persist.Backend,
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		Timeout:             cfg.Breaker.OpenTimeout,
	}, logger), nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (persist.Storage, error) {
	switch cfg.Persist.Backend {
	case config.BackendSQLite:
		storage, err := persist.NewSQLiteStorage(cfg.Persist.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}
		logger.Info("using sqlite storage", zap.String("path", cfg.Persist.SQLitePath))
		return storage, nil

	case config.BackendPostgres:
		storage, err := persist.NewPostgresStorage(persist.Credentials{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			DBName:   cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}
		logger.Info("using postgres storage", zap.String("host", cfg.Postgres.Host))
		return storage, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		logger.Info("using redis storage", zap.String("addr", cfg.Redis.Addr))
		return persist.NewRedisStorage(client, cfg.Redis.TTL), nil

	case config.BackendMongo:
		db, err := persist.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		logger.Info("using mongo storage", zap.String("database", cfg.Mongo.Database))
		return persist.NewMongoStorage(db), nil

	default:
		return nil, fmt.Errorf("unknown persist backend %q", cfg.Persist.Backend)
	}
}
