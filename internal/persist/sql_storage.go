package persist

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// Credentials for the Postgres backend.
type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c Credentials) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

// SQLStorage keeps blobs in the session_blobs table. Queries are written with
// ? placeholders and rebound for the driver in use.
type SQLStorage struct {
	db *sqlx.DB
}

// NewSQLiteStorage opens (or creates) a local database file and migrates it.
func NewSQLiteStorage(path string) (*SQLStorage, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{MigrationsTable: "booking_schema_migrations"})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	if err := runMigrations(driver, "sqlite"); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStorage{db: db}, nil
}

func NewPostgresStorage(cred Credentials) (*SQLStorage, error) {
	db, err := sqlx.Open("postgres", cred.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{MigrationsTable: "booking_schema_migrations"})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migration driver: %w", err)
	}
	if err := runMigrations(driver, "postgres"); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStorage{db: db}, nil
}

func runMigrations(driver database.Driver, dialect string) error {
	source, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *SQLStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	query := s.db.Rebind(`SELECT payload FROM session_blobs WHERE blob_key = ?`)
	err := s.db.GetContext(ctx, &payload, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query blob: %w", err)
	}
	return payload, nil
}

func (s *SQLStorage) Save(ctx context.Context, key string, payload []byte) error {
	query := s.db.Rebind(`INSERT INTO session_blobs (blob_key, payload, updated_at)
	          VALUES (?, ?, ?)
	          ON CONFLICT (blob_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, key, payload, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert blob: %w", err)
	}
	return nil
}

func (s *SQLStorage) Delete(ctx context.Context, key string) error {
	query := s.db.Rebind(`DELETE FROM session_blobs WHERE blob_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
