// Package loam implements ports.SnapshotStore on a Loam document
// repository. With versioning enabled on the repository, every snapshot
// write becomes a git commit, giving the state file a full history for
// free.
package loam

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/value"
)

// DefaultID is the document the snapshot is stored under ("snapshot.md").
const DefaultID = "snapshot"

// SnapshotMetadata is the frontmatter carried by the snapshot document.
// Decoded by Loam's typed repository through mapstructure.
type SnapshotMetadata struct {
	Revision int    `json:"revision" mapstructure:"revision"`
	SavedAt  string `json:"saved_at" mapstructure:"saved_at"`
	BackupOf string `json:"backup_of,omitempty" mapstructure:"backup_of,omitempty"`
}

// Store implements ports.SnapshotStore on a Loam repository.
type Store struct {
	repo     core.Repository
	typed    *loam.TypedRepository[SnapshotMetadata]
	id       string
	revision int
}

type Option func(*Store)

// WithID overrides the snapshot document's ID.
func WithID(id string) Option {
	return func(s *Store) {
		if id != "" {
			s.id = id
		}
	}
}

// New creates a store on an existing repository.
func New(repo core.Repository, opts ...Option) *Store {
	s := &Store{
		repo:  repo,
		typed: loam.NewTypedRepository[SnapshotMetadata](repo),
		id:    DefaultID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init initializes (or opens) a Loam repository at path and returns a store
// on it. Versioning is on: snapshot writes are committed.
func Init(path string, opts ...Option) (*Store, error) {
	repo, err := loam.Init(path,
		loam.WithStrict(true),
		loam.WithVersioning(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(repo, opts...), nil
}

func (s *Store) backupID() string {
	return s.id + "-backup"
}

// Save overwrites the snapshot document. The JSON body carries the tree;
// the frontmatter carries a revision counter and a wall-clock stamp.
func (s *Store) Save(ctx context.Context, v value.Value) error {
	data, err := value.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	s.revision++
	meta, err := encodeMetadata(SnapshotMetadata{
		Revision: s.revision,
		SavedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	doc := core.Document{
		ID:       s.id + ".md",
		Content:  string(data),
		Metadata: meta,
	}
	if err := s.repo.Save(ctx, doc); err != nil {
		return fmt.Errorf("failed to save snapshot document: %w", err)
	}
	return nil
}

// Load reads and decodes the snapshot document.
func (s *Store) Load(ctx context.Context) (value.Value, error) {
	doc, err := s.typed.Get(ctx, s.id)
	if err != nil {
		if !s.exists(ctx, s.id) {
			return nil, ports.ErrNotExist
		}
		return nil, fmt.Errorf("failed to get snapshot document: %w", err)
	}

	v, err := value.Decode([]byte(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot document: %w", err)
	}

	// Resume the stored revision counter so the sequence survives restarts.
	if doc.Data.Revision > s.revision {
		s.revision = doc.Data.Revision
	}
	return v, nil
}

// Backup copies the current snapshot document to a sibling backup document,
// overwriting any previous backup.
func (s *Store) Backup(ctx context.Context) error {
	doc, err := s.typed.Get(ctx, s.id)
	if err != nil {
		if !s.exists(ctx, s.id) {
			return ports.ErrNotExist
		}
		return fmt.Errorf("failed to get snapshot for backup: %w", err)
	}

	meta, err := encodeMetadata(SnapshotMetadata{
		Revision: doc.Data.Revision,
		SavedAt:  doc.Data.SavedAt,
		BackupOf: s.id,
	})
	if err != nil {
		return err
	}

	backup := core.Document{
		ID:       s.backupID() + ".md",
		Content:  doc.Content,
		Metadata: meta,
	}
	if err := s.repo.Save(ctx, backup); err != nil {
		return fmt.Errorf("failed to save backup document: %w", err)
	}
	return nil
}

// encodeMetadata turns the typed frontmatter into the loose map Loam
// documents carry, using the same mapstructure tags the typed repository
// decodes with.
func encodeMetadata(m SnapshotMetadata) (core.Metadata, error) {
	var meta core.Metadata
	if err := mapstructure.Decode(m, &meta); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot metadata: %w", err)
	}
	return meta, nil
}

// exists distinguishes "document missing" from other Get failures: Loam
// wraps both in opaque errors, so the listing decides.
func (s *Store) exists(ctx context.Context, id string) bool {
	docs, err := s.typed.List(ctx)
	if err != nil {
		return false
	}
	for _, doc := range docs {
		if trimExtension(doc.ID) == id {
			return true
		}
	}
	return false
}
