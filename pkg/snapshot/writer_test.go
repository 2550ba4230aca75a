package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/taproot/internal/testutils"
	"github.com/aretw0/taproot/pkg/tree"
	"github.com/aretw0/taproot/pkg/value"
)

// recordingStore captures saves and can be told to fail.
type recordingStore struct {
	saves   []value.Value
	saveErr error
	backups int
}

func (s *recordingStore) Load(ctx context.Context) (value.Value, error) {
	if len(s.saves) == 0 {
		return nil, errors.New("nothing saved")
	}
	return s.saves[len(s.saves)-1], nil
}

func (s *recordingStore) Save(ctx context.Context, v value.Value) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves = append(s.saves, value.Clone(v))
	return nil
}

func (s *recordingStore) Backup(ctx context.Context) error {
	s.backups++
	return nil
}

func newWriterFixture(t *testing.T, opts ...WriterOption) (*Writer, *recordingStore, *testutils.ManualScheduler, *tree.Cell) {
	t.Helper()

	freq := tree.NewCell(value.Int(7100000))
	root := tree.NewBranch()
	require.NoError(t, root.Add("freq", freq))

	sched := testutils.NewManualScheduler()
	store := &recordingStore{}

	var w *Writer
	d := NewDetector(root, sched, func() { w.Dirty() })
	w = NewWriter(d, store, sched, opts...)

	// Baseline pull arms the tree without scheduling anything.
	_, err := d.Get()
	require.NoError(t, err)
	require.False(t, w.PendingWrite())

	return w, store, sched, freq
}

func TestDebounceBatchesWithoutReset(t *testing.T) {
	w, store, sched, freq := newWriterFixture(t)

	// First dirty at t=0 arms the timer.
	require.NoError(t, freq.Set(value.Int(1)))
	require.True(t, w.PendingWrite())

	// A drizzle of further mutations inside the window must not push the
	// flush back. (The tree is silent after the first fire; hammer Dirty
	// directly to model repeated bursts.)
	sched.Advance(200 * time.Millisecond)
	w.Dirty()
	sched.Advance(200 * time.Millisecond)
	w.Dirty()
	assert.Empty(t, store.saves, "no flush before the window closes")

	// t=500: one flush, measured from the FIRST dirty call.
	sched.Advance(100 * time.Millisecond)
	assert.Len(t, store.saves, 1)
	assert.False(t, w.PendingWrite())

	// The window is closed; nothing else fires on its own.
	sched.Advance(time.Second)
	assert.Len(t, store.saves, 1)
	assert.Zero(t, sched.Pending())
}

func TestFlushWritesCurrentValueNotDirtyTimeValue(t *testing.T) {
	_, store, sched, freq := newWriterFixture(t)

	require.NoError(t, freq.Set(value.Int(1000))) // schedules the flush

	// Mutation while the timer is pending. The tree is unarmed (the burst
	// fired already), but flush re-pulls live state, so it must be seen.
	require.NoError(t, freq.Set(value.Int(2000)))

	sched.Advance(DefaultDelay)

	require.Len(t, store.saves, 1)
	got := store.saves[0].(value.Object)["freq"]
	assert.True(t, value.Equal(got, value.Int(2000)), "flush must write the value at flush time, got %v", got)
}

func TestRepeatedBurstsFlushOncePerWindow(t *testing.T) {
	w, store, sched, freq := newWriterFixture(t, WithDelay(100*time.Millisecond))

	for i := 1; i <= 5; i++ {
		require.NoError(t, freq.Set(value.Int(int64(i))))
		// Each write re-arms nothing until flush re-pulls, so these all
		// collapse into the single pending window.
	}
	assert.Empty(t, store.saves)

	sched.Advance(100 * time.Millisecond)
	require.Len(t, store.saves, 1)
	assert.True(t, value.Equal(store.saves[0].(value.Object)["freq"], value.Int(5)))

	// Next burst, next window.
	require.NoError(t, freq.Set(value.Int(42)))
	assert.True(t, w.PendingWrite())
	sched.Advance(100 * time.Millisecond)
	require.Len(t, store.saves, 2)
}

func TestWriteFailureIsNotRetried(t *testing.T) {
	w, store, sched, freq := newWriterFixture(t)
	store.saveErr = errors.New("disk full")

	require.NoError(t, freq.Set(value.Int(1)))
	sched.Advance(DefaultDelay)

	assert.Empty(t, store.saves, "failed write stores nothing")
	assert.False(t, w.PendingWrite(), "a failed flush must not stay armed")
	assert.Zero(t, sched.Pending(), "no automatic retry may be scheduled")

	// Recovery happens through the next genuine change.
	store.saveErr = nil
	require.NoError(t, freq.Set(value.Int(2)))
	sched.Advance(DefaultDelay)
	require.Len(t, store.saves, 1)
	assert.True(t, value.Equal(store.saves[0].(value.Object)["freq"], value.Int(2)))
}

func TestManualFlushCancelsPendingTimer(t *testing.T) {
	w, store, sched, freq := newWriterFixture(t)

	require.NoError(t, freq.Set(value.Int(123)))
	require.True(t, w.PendingWrite())

	require.NoError(t, w.Flush(context.Background()))
	assert.Len(t, store.saves, 1)
	assert.False(t, w.PendingWrite())

	// The canceled timer must not produce a second write.
	sched.Advance(DefaultDelay)
	assert.Len(t, store.saves, 1)
}

func TestHooksObserveChangesAndFlushes(t *testing.T) {
	var changes int
	var events []FlushEvent

	_, store, sched, freq := newWriterFixture(t, WithHooks(Hooks{
		OnChange: func() { changes++ },
		OnFlush:  func(e FlushEvent) { events = append(events, e) },
	}))

	require.NoError(t, freq.Set(value.Int(1)))
	sched.Advance(DefaultDelay)

	store.saveErr = errors.New("disk full")
	require.NoError(t, freq.Set(value.Int(2)))
	sched.Advance(DefaultDelay)

	assert.Equal(t, 2, changes)
	require.Len(t, events, 2)
	assert.NoError(t, events[0].Err)
	assert.Error(t, events[1].Err)
}
