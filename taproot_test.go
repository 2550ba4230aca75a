package taproot_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/taproot"
	"github.com/aretw0/taproot/internal/testutils"
	"github.com/aretw0/taproot/pkg/adapters/file"
	"github.com/aretw0/taproot/pkg/adapters/memory"
	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/snapshot"
	"github.com/aretw0/taproot/pkg/tree"
	"github.com/aretw0/taproot/pkg/value"
)

// countingStore wraps a SnapshotStore so tests can assert on I/O counts.
type countingStore struct {
	ports.SnapshotStore
	saves   int
	backups int
}

func (s *countingStore) Save(ctx context.Context, v value.Value) error {
	s.saves++
	return s.SnapshotStore.Save(ctx, v)
}

func (s *countingStore) Backup(ctx context.Context) error {
	s.backups++
	return s.SnapshotStore.Backup(ctx)
}

func newRadioTree(t *testing.T) (*tree.Branch, *tree.Cell) {
	t.Helper()
	freq := tree.NewCell(value.Int(7_100_000))
	root := tree.NewBranch()
	require.NoError(t, root.Add("freq", freq))
	return root, freq
}

func TestOpenRestoresExistingSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	original := []byte(`{"freq": 100000000}`)
	require.NoError(t, os.WriteFile(path, original, 0644))

	root, freq := newRadioTree(t)
	sched := testutils.NewManualScheduler()
	fstore := file.New(path)
	store := &countingStore{SnapshotStore: fstore}

	k, err := taproot.Open(context.Background(), root,
		taproot.WithStore(store),
		taproot.WithScheduler(sched),
	)
	require.NoError(t, err)
	defer k.Close(context.Background())

	// Stored value applied to the tree.
	i, err := freq.Get().(value.Number).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(100000000), i)

	// Backup taken at load time, byte-for-byte.
	backup, err := os.ReadFile(fstore.BackupPath())
	require.NoError(t, err)
	assert.Equal(t, original, backup)
	assert.Equal(t, 1, store.backups)

	// The baseline pull is not a dirty event: no write scheduled, none made.
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, 0, sched.Pending())

	// A real mutation writes only after the debounce window.
	require.NoError(t, k.Set(context.Background(), "freq", value.Int(7_200_000)))
	assert.Equal(t, 0, store.saves)

	sched.Advance(499 * time.Millisecond)
	assert.Equal(t, 0, store.saves, "no write before the window closes")

	sched.Advance(time.Millisecond)
	assert.Equal(t, 1, store.saves)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"freq": 7200000}`, string(data))
}

func TestOpenMissingStoreAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	root, freq := newRadioTree(t)
	sched := testutils.NewManualScheduler()
	fstore := file.New(path)
	store := &countingStore{SnapshotStore: fstore}

	calls := 0
	k, err := taproot.Open(context.Background(), root,
		taproot.WithStore(store),
		taproot.WithScheduler(sched),
		taproot.WithDefaults(func(r tree.Node) value.Value {
			calls++
			assert.Same(t, tree.Node(root), r)
			return value.Object{"freq": value.Int(3_500_000)}
		}),
	)
	require.NoError(t, err)
	defer k.Close(context.Background())

	assert.Equal(t, 1, calls, "defaults supplier invoked exactly once")

	i, err := freq.Get().(value.Number).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(3_500_000), i)

	// No backup for a store that held nothing.
	_, err = os.Stat(fstore.BackupPath())
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, store.backups)

	// First write only after the first post-startup mutation plus the delay.
	assert.Equal(t, 0, store.saves)
	require.NoError(t, k.Set(context.Background(), "freq", value.Int(3_600_000)))
	sched.Advance(snapshot.DefaultDelay)
	assert.Equal(t, 1, store.saves)
}

func TestOpenCorruptSnapshotIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"freq": not-json`), 0644))

	root, _ := newRadioTree(t)
	_, err := taproot.Open(context.Background(), root,
		taproot.WithStore(file.New(path)),
		taproot.WithScheduler(testutils.NewManualScheduler()),
	)
	require.Error(t, err, "a malformed store must abort startup, not fall back to defaults")
}

func TestOpenUnknownStoredKeyIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"bogus": 1}`), 0644))

	root, _ := newRadioTree(t)
	_, err := taproot.Open(context.Background(), root,
		taproot.WithStore(file.New(path)),
		taproot.WithScheduler(testutils.NewManualScheduler()),
	)
	require.ErrorIs(t, err, tree.ErrUnknownKey)
}

func TestDisabledPersistence(t *testing.T) {
	root, freq := newRadioTree(t)
	sched := testutils.NewManualScheduler()

	k, err := taproot.Open(context.Background(), root,
		taproot.WithScheduler(sched),
	)
	require.NoError(t, err)

	assert.False(t, k.Enabled())

	// Mutations flow through the tree but never reach any store.
	for i := 0; i < 10; i++ {
		require.NoError(t, k.Set(context.Background(), "freq", value.Int(int64(i))))
	}
	assert.Equal(t, 0, sched.Pending(), "nothing scheduled without a store")

	assert.NoError(t, k.Flush(context.Background()))
	assert.NoError(t, k.Close(context.Background()))

	i, err := freq.Get().(value.Number).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(9), i)
}

func TestFlushWritesImmediatelyAndCancelsTimer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	root, _ := newRadioTree(t)
	sched := testutils.NewManualScheduler()
	store := &countingStore{SnapshotStore: file.New(path)}

	k, err := taproot.Open(context.Background(), root,
		taproot.WithStore(store),
		taproot.WithScheduler(sched),
	)
	require.NoError(t, err)

	require.NoError(t, k.Set(context.Background(), "freq", value.Int(1)))
	require.NoError(t, k.Flush(context.Background()))
	assert.Equal(t, 1, store.saves)

	// The pending debounced write was canceled; the window closing must not
	// write again.
	sched.Advance(time.Second)
	assert.Equal(t, 1, store.saves)
}

func TestCloseFlushesPendingWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	root, _ := newRadioTree(t)
	sched := testutils.NewManualScheduler()
	store := &countingStore{SnapshotStore: file.New(path)}

	k, err := taproot.Open(context.Background(), root,
		taproot.WithStore(store),
		taproot.WithScheduler(sched),
	)
	require.NoError(t, err)

	require.NoError(t, k.Set(context.Background(), "freq", value.Int(14_000_000)))
	require.NoError(t, k.Close(context.Background()))
	assert.Equal(t, 1, store.saves, "Close must flush the pending mutation")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"freq": 14000000}`, string(data))

	// Closed keepers reject further work.
	assert.ErrorIs(t, k.Set(context.Background(), "freq", value.Int(1)), taproot.ErrClosed)
	assert.NoError(t, k.Close(context.Background()), "Close is idempotent")
}

func TestKeeperOnOwnLoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	root, _ := newRadioTree(t)
	store := &countingStore{SnapshotStore: file.New(path)}

	// No scheduler injected: the keeper runs its own loop with a short
	// real-time debounce.
	k, err := taproot.Open(context.Background(), root,
		taproot.WithStore(store),
		taproot.WithDelay(10*time.Millisecond),
	)
	require.NoError(t, err)

	require.NoError(t, k.Set(context.Background(), "freq", value.Int(21_000_000)))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(path)
		return err == nil && string(data) == `{"freq":21000000}`
	}, 2*time.Second, 5*time.Millisecond)

	v, err := k.Get(context.Background(), "freq")
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Int(21_000_000), v))

	snap, err := k.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Object{"freq": value.Int(21_000_000)}, snap))

	require.NoError(t, k.Close(context.Background()))
}

func TestBulkMutationBurstOnOwnLoop(t *testing.T) {
	// Every armed cell touched by one task posts its own change delivery back
	// onto the loop, so a bulk update fans out hundreds of posts before the
	// mutating task returns. The loop must absorb that without stalling, and
	// the whole burst must still coalesce into one write.
	const cells = 500

	root := tree.NewBranch()
	for i := 0; i < cells; i++ {
		require.NoError(t, root.Add(cellName(i), tree.NewCell(value.Int(0))))
	}

	store := &countingStore{SnapshotStore: memory.NewStore()}
	k, err := taproot.Open(context.Background(), root,
		taproot.WithStore(store),
		taproot.WithDelay(10*time.Millisecond),
	)
	require.NoError(t, err)
	defer k.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = k.Do(ctx, func() error {
		for i := 0; i < cells; i++ {
			if err := tree.Set(root, cellName(i), value.Int(1)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err, "bulk mutation task never returned")

	require.Eventually(t, func() bool {
		loaded, err := store.Load(context.Background())
		if err != nil {
			return false
		}
		obj, ok := loaded.(value.Object)
		return ok && value.Equal(value.Int(1), obj[cellName(0)]) &&
			value.Equal(value.Int(1), obj[cellName(cells-1)])
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, store.saves, "a single burst should cost a single save")
}

func cellName(i int) string {
	return "cell" + strconv.Itoa(i)
}
