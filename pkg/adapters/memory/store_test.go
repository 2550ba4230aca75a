package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/value"
)

func TestStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, NewStore())
}

func TestStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	snap := value.Object{"nested": value.Object{"freq": value.Int(1)}}
	require.NoError(t, store.Save(ctx, snap))

	// Mutating the saved container must not leak into the store.
	snap["nested"].(value.Object)["freq"] = value.Int(999)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Object{"nested": value.Object{"freq": value.Int(1)}}, loaded))

	// Mutating a loaded container must not leak either.
	loaded.(value.Object)["nested"].(value.Object)["freq"] = value.Int(42)
	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Object{"nested": value.Object{"freq": value.Int(1)}}, again))
}

func TestStore_BackupHoldsPreMutationCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Save(ctx, value.Object{"rev": value.Int(1)}))
	require.NoError(t, store.Backup(ctx))
	require.NoError(t, store.Save(ctx, value.Object{"rev": value.Int(2)}))

	backup, ok := store.BackupValue()
	require.True(t, ok)
	assert.True(t, value.Equal(value.Object{"rev": value.Int(1)}, backup))
}
