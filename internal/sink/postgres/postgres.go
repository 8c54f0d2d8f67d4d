// Package postgres provides a PostgreSQL-backed sink. Each record is
// inserted as one row with its JSON payload.
package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"logpipe-go/internal/config"
	"logpipe-go/internal/sink"
)

// Sink implements sink.Sink using a pgx connection pool.
type Sink struct {
	pool *pgxpool.Pool

	mu     sync.Mutex
	closed bool
}

// New creates a PostgreSQL sink, verifies the connection and ensures
// the log_records table exists.
func New(ctx context.Context, cfg *config.PostgresConfig) (*Sink, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
		cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &Sink{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// runMigrations creates the required table.
func (s *Sink) runMigrations(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS log_records (
			id BIGSERIAL PRIMARY KEY,
			record JSONB NOT NULL,
			inserted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_log_records_inserted_at ON log_records(inserted_at);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Append inserts one record row.
func (s *Sink) Append(ctx context.Context, record string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return sink.ErrClosed
	}
	s.mu.Unlock()

	query := `INSERT INTO log_records (record) VALUES ($1)`
	if _, err := s.pool.Exec(ctx, query, record); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	return nil
}

// Flush is a no-op; each insert commits on its own.
func (s *Sink) Flush() error {
	return nil
}

// Close releases the connection pool. Idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
