// Package store is the persistent store (§3 of the spec): a relational
// schema plus a session abstraction exposing read queries, inserts,
// updates, and transactional commit/rollback.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver with database/sql, for goose
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store owns the connection pool to Postgres.
type Store struct {
	log  *slog.Logger
	pool *pgxpool.Pool
	dsn  string
}

// Config configures the Store.
type Config struct {
	Logger           *slog.Logger
	ConnectionString string
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ConnectionString == "" {
		return errors.New("connection string is required")
	}
	return nil
}

// Open connects to Postgres and returns a ready Store. It does not run
// migrations; call Init for that.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &Store{log: cfg.Logger, pool: pool, dsn: cfg.ConnectionString}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Init runs the "init" CLI command: creates every table in the schema.
func (s *Store) Init(ctx context.Context) error {
	return s.runGoose(ctx, func(db *sql.DB) error {
		return goose.UpContext(ctx, db, "migrations")
	})
}

// Drop runs the "drop" CLI command: drops every table in the schema.
func (s *Store) Drop(ctx context.Context) error {
	return s.runGoose(ctx, func(db *sql.DB) error {
		return goose.DownToContext(ctx, db, "migrations", 0)
	})
}

func (s *Store) runGoose(ctx context.Context, fn func(*sql.DB) error) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	db, err := sql.Open("pgx", s.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	if err := fn(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Begin opens a new Session backed by a fresh transaction. Callers must
// Commit or Rollback it.
func (s *Store) Begin(ctx context.Context) (*Session, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Session{log: s.log, tx: tx}, nil
}

// BeginReadOnly is the same as Begin: it opens an ordinary
// transaction-backed Session, and nothing marks it read-only.
func (s *Store) BeginReadOnly(ctx context.Context) (*Session, error) {
	return s.Begin(ctx)
}
