package ports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/taproot/pkg/value"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a
// SnapshotStore implementation adheres to the defined interface contract.
// The store must be empty (never saved to) when passed in.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()

	t.Run("Load Empty", func(t *testing.T) {
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, ErrNotExist, "Load on an empty store should return ErrNotExist")
	})

	t.Run("Backup Empty", func(t *testing.T) {
		err := store.Backup(ctx)
		assert.ErrorIs(t, err, ErrNotExist, "Backup on an empty store should return ErrNotExist")
	})

	t.Run("Save and Load", func(t *testing.T) {
		snap := value.Object{
			"callsign": value.String("W1AW"),
			"freq":     value.Number("100000000"),
			"enabled":  value.Bool(true),
			"nested":   value.Object{"gain": value.Float(10.5)},
		}

		err := store.Save(ctx, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx)
		require.NoError(t, err, "Load should not return error")
		assert.True(t, value.Equal(snap, loaded), "loaded snapshot should equal saved snapshot")

		// Integer fidelity must survive the store's own encoding.
		obj, ok := loaded.(value.Object)
		require.True(t, ok)
		freq, ok := obj["freq"].(value.Number)
		require.True(t, ok, "freq should still be a number")
		i, err := freq.Int64()
		require.NoError(t, err)
		assert.Equal(t, int64(100000000), i)
	})

	t.Run("Overwrite", func(t *testing.T) {
		first := value.Object{"rev": value.Int(1)}
		second := value.Object{"rev": value.Int(2)}

		require.NoError(t, store.Save(ctx, first))
		require.NoError(t, store.Save(ctx, second))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		assert.True(t, value.Equal(second, loaded), "last write should win")
	})

	t.Run("Backup After Save", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, value.Object{"rev": value.Int(3)}))

		err := store.Backup(ctx)
		assert.NoError(t, err, "Backup after a save should succeed")

		// Backing up twice must overwrite, not fail.
		err = store.Backup(ctx)
		assert.NoError(t, err, "repeated Backup should succeed")
	})
}
