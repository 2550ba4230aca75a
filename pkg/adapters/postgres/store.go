// Package postgres implements ports.SnapshotStore on a PostgreSQL table.
// The snapshot document and its backup live in one row of jsonb columns,
// keyed by a configurable name so several trees can share the table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/value"
)

// DefaultName is the row key used when none is configured.
const DefaultName = "default"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS taproot_snapshots (
	name     text PRIMARY KEY,
	document jsonb NOT NULL,
	backup   jsonb,
	saved_at timestamptz NOT NULL DEFAULT now()
)`

// Store implements ports.SnapshotStore using a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	name string
}

type Option func(*Store)

// WithName sets the row key the snapshot is stored under.
func WithName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// New creates a store on an existing pool. The pool stays owned by the
// caller.
func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{
		pool: pool,
		name: DefaultName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens a pool for dsn and returns a store on it. Close releases
// the pool.
func Connect(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return New(pool, opts...), nil
}

// EnsureSchema creates the snapshot table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure snapshot table: %w", err)
	}
	return nil
}

// Save upserts the snapshot document.
func (s *Store) Save(ctx context.Context, v value.Value) error {
	data, err := value.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	const q = `
		INSERT INTO taproot_snapshots (name, document, saved_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET document = EXCLUDED.document, saved_at = now()`
	if _, err := s.pool.Exec(ctx, q, s.name, data); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot document.
func (s *Store) Load(ctx context.Context) (value.Value, error) {
	var data []byte
	const q = `SELECT document FROM taproot_snapshots WHERE name = $1`
	err := s.pool.QueryRow(ctx, q, s.name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotExist
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	v, err := value.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return v, nil
}

// Backup copies the document column into the backup column of the same row.
func (s *Store) Backup(ctx context.Context) error {
	const q = `UPDATE taproot_snapshots SET backup = document WHERE name = $1`
	tag, err := s.pool.Exec(ctx, q, s.name)
	if err != nil {
		return fmt.Errorf("failed to back up snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotExist
	}
	return nil
}

// Close releases the pool. Only call it when the store owns the pool (it
// was built with Connect).
func (s *Store) Close() {
	s.pool.Close()
}
