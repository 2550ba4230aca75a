package taproot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/taproot/internal/logging"
	"github.com/aretw0/taproot/pkg/ports"
	"github.com/aretw0/taproot/pkg/reactor"
	"github.com/aretw0/taproot/pkg/snapshot"
	"github.com/aretw0/taproot/pkg/tree"
	"github.com/aretw0/taproot/pkg/value"
)

// ErrClosed is returned by Keeper methods after Close.
var ErrClosed = errors.New("taproot: keeper closed")

// DefaultSupplier produces the snapshot applied to a fresh tree when the
// store holds nothing yet. It is invoked at most once, during Open.
type DefaultSupplier func(root tree.Node) value.Value

// Keeper is the high-level entry point: it bootstraps a state tree from its
// stored snapshot, arms change detection across the tree, and keeps the store
// up to date with debounced writes for the rest of the process lifetime.
//
// Every tree access goes through the keeper's loop, so callers on any
// goroutine get the single-threaded semantics the persistence core requires.
type Keeper struct {
	root     tree.Node
	store    ports.SnapshotStore
	sched    ports.Scheduler
	loop     *reactor.Loop
	detector *snapshot.Detector
	writer   *snapshot.Writer

	logger   *slog.Logger
	delay    time.Duration
	defaults DefaultSupplier
	hooks    snapshot.Hooks

	closeOnce sync.Once
	closeErr  error
	quit      chan struct{}
}

// Option configures a Keeper.
type Option func(*Keeper)

// WithStore sets the snapshot destination. Without one, persistence is
// disabled entirely: no load, no defaults, no writer, zero I/O.
func WithStore(store ports.SnapshotStore) Option {
	return func(k *Keeper) {
		k.store = store
	}
}

// WithScheduler injects an external scheduler instead of the keeper's own
// reactor loop. The caller then owns the threading discipline: every keeper
// method runs inline and must come from the scheduler's thread.
func WithScheduler(sched ports.Scheduler) Option {
	return func(k *Keeper) {
		k.sched = sched
	}
}

// WithDelay overrides the debounce window between the first change of a
// burst and the write it schedules.
func WithDelay(d time.Duration) Option {
	return func(k *Keeper) {
		if d > 0 {
			k.delay = d
		}
	}
}

// WithDefaults sets the supplier consulted when the store is empty.
func WithDefaults(fn DefaultSupplier) Option {
	return func(k *Keeper) {
		k.defaults = fn
	}
}

// WithLogger sets the keeper's logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Keeper) {
		if logger != nil {
			k.logger = logger
		}
	}
}

// WithHooks attaches lifecycle hooks, delivered on the keeper's loop.
func WithHooks(h snapshot.Hooks) Option {
	return func(k *Keeper) {
		k.hooks = h
	}
}

// Open bootstraps persistence for root.
//
// With a store configured the sequence is: load the stored snapshot and
// apply it to root (any failure is fatal — silently discarding saved state
// is worse than refusing to start); on successful load, copy the document to
// the store's backup location; when nothing is stored yet, apply the
// defaults supplier instead. Then change detection is armed with one baseline
// pull, which never schedules a write: the first write happens only after a
// genuine post-startup mutation and its debounce delay.
//
// Without a store the keeper only provides loop-confined tree access.
func Open(ctx context.Context, root tree.Node, opts ...Option) (*Keeper, error) {
	k := &Keeper{
		root:   root,
		delay:  snapshot.DefaultDelay,
		logger: logging.NewNop(),
		quit:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(k)
	}

	if k.sched == nil {
		k.loop = reactor.New(reactor.WithLogger(k.logger))
		k.sched = k.loop
	}

	if k.store == nil {
		k.logger.Debug("persistence disabled, no store configured")
		return k, nil
	}

	if err := k.call(ctx, func() error { return k.bootstrap(ctx) }); err != nil {
		if k.loop != nil {
			k.loop.Close()
		}
		return nil, err
	}
	return k, nil
}

// bootstrap runs on the loop.
func (k *Keeper) bootstrap(ctx context.Context) error {
	v, err := k.store.Load(ctx)
	switch {
	case err == nil:
		if err := k.root.Deserialize(v); err != nil {
			return fmt.Errorf("taproot: apply stored snapshot: %w", err)
		}
		// The pre-mutation copy is what a corrupted future write gets
		// recovered from; failing to take it is as fatal as failing to load.
		if err := k.store.Backup(ctx); err != nil {
			return fmt.Errorf("taproot: back up snapshot: %w", err)
		}
		k.logger.Info("state restored from snapshot")
	case errors.Is(err, ports.ErrNotExist):
		if k.defaults != nil {
			if err := k.root.Deserialize(k.defaults(k.root)); err != nil {
				return fmt.Errorf("taproot: apply default snapshot: %w", err)
			}
		}
		k.logger.Info("no stored snapshot, starting from defaults")
	default:
		return fmt.Errorf("taproot: load snapshot: %w", err)
	}

	k.detector = snapshot.NewDetector(k.root, k.sched, func() { k.writer.Dirty() })
	k.writer = snapshot.NewWriter(k.detector, k.store, k.sched,
		snapshot.WithDelay(k.delay),
		snapshot.WithLogger(k.logger),
		snapshot.WithHooks(k.hooks),
	)

	// Baseline pull: arms the subscription set, result discarded. Deliberately
	// not a dirty event — the store already holds exactly this document.
	if _, err := k.detector.Get(); err != nil {
		return fmt.Errorf("taproot: arm change detection: %w", err)
	}
	return nil
}

// call funnels fn onto the loop, or runs it inline when the caller supplied
// the scheduler and with it the threading discipline.
func (k *Keeper) call(ctx context.Context, fn func() error) error {
	select {
	case <-k.quit:
		return ErrClosed
	default:
	}
	if k.loop != nil {
		return k.loop.Call(ctx, fn)
	}
	return fn()
}

// Enabled reports whether a store is configured.
func (k *Keeper) Enabled() bool {
	return k.store != nil
}

// Root returns the tree the keeper was opened on. Mutate it only through Do,
// Set, or from code already running on the keeper's loop.
func (k *Keeper) Root() tree.Node {
	return k.root
}

// Do runs fn on the keeper's loop, giving foreign goroutines safe access to
// the tree.
func (k *Keeper) Do(ctx context.Context, fn func() error) error {
	return k.call(ctx, fn)
}

// Snapshot serializes the full tree without touching the armed subscription
// set.
func (k *Keeper) Snapshot(ctx context.Context) (value.Value, error) {
	var v value.Value
	err := k.call(ctx, func() error {
		var serr error
		v, serr = k.root.Serialize(nil)
		return serr
	})
	return v, err
}

// Get serializes the node at a dotted path ("rig.freq").
func (k *Keeper) Get(ctx context.Context, path string) (value.Value, error) {
	var v value.Value
	err := k.call(ctx, func() error {
		var gerr error
		v, gerr = tree.Get(k.root, path)
		return gerr
	})
	return v, err
}

// Set writes a value to the cell at a dotted path. The change is picked up
// by the armed detector like any other mutation.
func (k *Keeper) Set(ctx context.Context, path string, v value.Value) error {
	return k.call(ctx, func() error {
		return tree.Set(k.root, path, v)
	})
}

// Flush writes the current snapshot immediately, canceling any pending
// debounced write. A no-op when persistence is disabled.
func (k *Keeper) Flush(ctx context.Context) error {
	if k.store == nil {
		return nil
	}
	return k.call(ctx, func() error {
		return k.writer.Flush(ctx)
	})
}

// Close flushes any pending write and stops the keeper's loop. Idempotent;
// methods called afterwards return ErrClosed.
func (k *Keeper) Close(ctx context.Context) error {
	k.closeOnce.Do(func() {
		if k.writer != nil {
			err := k.call(ctx, func() error {
				if !k.writer.PendingWrite() {
					return nil
				}
				return k.writer.Flush(ctx)
			})
			if err != nil {
				k.closeErr = fmt.Errorf("taproot: final flush: %w", err)
			}
		}
		close(k.quit)
		if k.loop != nil {
			k.loop.Close()
		}
	})
	return k.closeErr
}
