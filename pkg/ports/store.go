package ports

import (
	"context"
	"errors"

	"github.com/aretw0/taproot/pkg/value"
)

// ErrNotExist is returned by Load and Backup when no snapshot has ever been
// saved to the store.
var ErrNotExist = errors.New("snapshot does not exist")

// SnapshotStore defines the interface for durably persisting one snapshot
// document: the entire serialized state tree. There is no locking or
// versioning of the document; the last writer wins.
type SnapshotStore interface {
	// Load retrieves the current snapshot.
	// Returns ErrNotExist if nothing has been saved yet.
	Load(ctx context.Context) (value.Value, error)

	// Save overwrites the current snapshot.
	Save(ctx context.Context, v value.Value) error

	// Backup copies the current snapshot to a sibling backup location,
	// overwriting any previous backup. Returns ErrNotExist when there is
	// no snapshot to copy.
	Backup(ctx context.Context) error
}
