// Package redis implements ports.SnapshotStore on a Redis server. The
// snapshot document lives under a single key; the backup under a sibling
// key with a fixed suffix.
package redis

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/value"
)

// DefaultKey is the key the snapshot document is stored under.
const DefaultKey = "taproot:snapshot"

// backupSuffix mirrors the file store's sibling-path convention.
const backupSuffix = "~"

// Store implements ports.SnapshotStore using Redis.
type Store struct {
	client *backend.Client
	key    string
}

type Option func(*Store)

// WithKey overrides the snapshot key, so several trees can share one server.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// New creates a Redis store with its own client.
func New(address, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		key:    DefaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BackupKey returns the key the backup copy is stored under.
func (s *Store) BackupKey() string {
	return s.key + backupSuffix
}

// Save overwrites the snapshot document. No TTL: persisted state must
// outlive any session.
func (s *Store) Save(ctx context.Context, v value.Value) error {
	data, err := value.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot document.
func (s *Store) Load(ctx context.Context) (value.Value, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ports.ErrNotExist
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	v, err := value.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return v, nil
}

// Backup copies the current document to the backup key, overwriting any
// previous backup.
func (s *Store) Backup(ctx context.Context) error {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return ports.ErrNotExist
		}
		return fmt.Errorf("failed to read snapshot for backup: %w", err)
	}
	if err := s.client.Set(ctx, s.BackupKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}
