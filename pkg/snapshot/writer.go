package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/taproot/internal/logging"
	"github.com/aretw0/taproot/pkg/ports"
)

// DefaultDelay is the debounce window between the first dirty signal of a
// burst and the flush it schedules.
const DefaultDelay = 500 * time.Millisecond

// Writer owns the debounced persistence of one detector/store pair.
//
// Dirty is schedule-if-absent: the first call in a window arms a one-shot
// flush timer, and further calls while it is armed do nothing. A steady
// drizzle of dirty signals therefore still flushes once per window, measured
// from the first signal — the timer is never pushed back. At flush time the
// tree is re-pulled, so the document written always reflects the newest
// state, including mutations that arrived during the wait.
type Writer struct {
	detector *Detector
	store    ports.SnapshotStore
	sched    ports.Scheduler
	delay    time.Duration
	logger   *slog.Logger
	hooks    Hooks
	pending  ports.Timer
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithDelay overrides the debounce window.
func WithDelay(d time.Duration) WriterOption {
	return func(w *Writer) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithLogger sets the writer's logger.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithHooks attaches lifecycle hooks.
func WithHooks(h Hooks) WriterOption {
	return func(w *Writer) {
		w.hooks = h
	}
}

// NewWriter creates a writer flushing detector pulls into store. All methods
// must run on the loop behind sched.
func NewWriter(detector *Detector, store ports.SnapshotStore, sched ports.Scheduler, opts ...WriterOption) *Writer {
	w := &Writer{
		detector: detector,
		store:    store,
		sched:    sched,
		delay:    DefaultDelay,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dirty marks the persisted snapshot stale. The first call of a burst
// schedules a flush after the debounce delay; calls while one is already
// scheduled are absorbed.
func (w *Writer) Dirty() {
	w.hooks.changed()
	if w.pending != nil && w.pending.Active() {
		return
	}
	w.logger.Debug("scheduling state write", "delay", w.delay)
	w.pending = w.sched.Schedule(w.delay, w.timerFlush)
}

// PendingWrite reports whether a flush is currently scheduled.
func (w *Writer) PendingWrite() bool {
	return w.pending != nil && w.pending.Active()
}

// Flush writes immediately, canceling any scheduled flush first. Used for
// shutdown and for explicit save requests; timer-driven flushes go through
// the same path.
func (w *Writer) Flush(ctx context.Context) error {
	return w.write(ctx)
}

func (w *Writer) timerFlush() {
	// Timer callbacks have no caller to hand a context or an error to; the
	// write logs its own failures and is not retried. The mutation is still
	// live in the tree, so the next dirty signal schedules a fresh attempt.
	_ = w.write(context.Background())
}

func (w *Writer) write(ctx context.Context) error {
	defer w.disarm()

	v, err := w.detector.Get()
	if err != nil {
		w.logger.Error("state serialize failed", "error", err)
		w.hooks.flushed(FlushEvent{Err: err})
		return err
	}

	start := time.Now()
	if err := w.store.Save(ctx, v); err != nil {
		w.logger.Error("state write failed", "error", err)
		w.hooks.flushed(FlushEvent{Duration: time.Since(start), Err: err})
		return err
	}

	w.logger.Debug("state written", "took", time.Since(start))
	w.hooks.flushed(FlushEvent{Duration: time.Since(start)})
	return nil
}

// disarm clears the pending timer, defensively canceling one that still
// reports active (a manual Flush racing its own schedule).
func (w *Writer) disarm() {
	if w.pending != nil {
		w.sched.Cancel(w.pending)
		w.pending = nil
	}
}
