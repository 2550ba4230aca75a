// Package memory implements ports.SnapshotStore without I/O, for tests and
// for processes that want taproot's change detection with throwaway state.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/value"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	snapshot value.Value
	backup   value.Value
	saved    bool
	backedUp bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Save overwrites the held snapshot. The value is deep-copied so the caller
// cannot mutate stored state through shared containers.
func (s *Store) Save(ctx context.Context, v value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = value.Clone(v)
	s.saved = true
	return nil
}

// Load returns a copy of the held snapshot.
func (s *Store) Load(ctx context.Context) (value.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.saved {
		return nil, ports.ErrNotExist
	}
	return value.Clone(s.snapshot), nil
}

// Backup copies the held snapshot to the backup slot.
func (s *Store) Backup(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return ports.ErrNotExist
	}
	s.backup = value.Clone(s.snapshot)
	s.backedUp = true
	return nil
}

// BackupValue returns the backup slot's contents, for tests asserting on
// the pre-mutation copy.
func (s *Store) BackupValue() (value.Value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.backedUp {
		return nil, false
	}
	return value.Clone(s.backup), true
}
