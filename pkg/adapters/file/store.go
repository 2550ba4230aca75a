// Package file persists snapshots as a single JSON document on the local
// filesystem, with atomic replace semantics and a sibling backup file.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/value"
)

// BackupSuffix is appended to the destination path for the startup backup
// copy, mirroring the editor convention for "previous version of this file".
const BackupSuffix = "~"

// Store implements ports.SnapshotStore on one file path.
type Store struct {
	Path string
}

// New creates a store writing to path.
func New(path string) *Store {
	return &Store{Path: path}
}

// BackupPath returns the sibling path backups are copied to.
func (s *Store) BackupPath() string {
	return s.Path + BackupSuffix
}

// Save writes the snapshot atomically: encode, validate, write to a temp
// file in the same directory, fsync, then rename over the destination. A
// failed write leaves the previous good document intact.
func (s *Store) Save(ctx context.Context, v value.Value) error {
	data, err := value.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if !jsoniter.ConfigFastest.Valid(data) {
		return fmt.Errorf("refusing to persist invalid JSON")
	}

	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}

	// 1. Create Temp File
	// Same directory ensures same filesystem (required for atomic rename).
	tmpFile, err := os.CreateTemp(dir, "tmp-"+filepath.Base(s.Path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	// Cleanup temp file in case of failure.
	defer func() {
		_ = tmpFile.Close()    // Ensure closed
		_ = os.Remove(tmpPath) // Remove if still exists (not renamed)
	}()

	// 2. Write Data
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	// 3. Fsync to ensure durability
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}

	// 4. Close File (cannot rename open file on Windows)
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// 5. Atomic Rename
	// On Windows, os.Rename fails if dest exists. We must remove it first.
	// The Delete+Rename window is acceptable compared to a partial write.
	if _, err := os.Stat(s.Path); err == nil {
		if err := os.Remove(s.Path); err != nil {
			return fmt.Errorf("failed to remove existing state file for overwrite: %w", err)
		}
	}

	if err := os.Rename(tmpPath, s.Path); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}

	return nil
}

// Load reads and decodes the snapshot document.
func (s *Store) Load(ctx context.Context) (value.Value, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ports.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	v, err := value.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode state file: %w", err)
	}
	return v, nil
}

// Backup copies the current document byte-for-byte to the backup path,
// overwriting any previous backup. It runs at startup before the writer
// exists, so a plain copy is sufficient.
func (s *Store) Backup(ctx context.Context) error {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return ports.ErrNotExist
		}
		return fmt.Errorf("failed to read state file for backup: %w", err)
	}

	if err := os.WriteFile(s.BackupPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}
