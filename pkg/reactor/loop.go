// Package reactor provides the single-threaded execution model the
// persistence core assumes: one goroutine owns the state tree, and every
// entry point into it — mutations, snapshot pulls, scheduled flushes, change
// deliveries — runs as a task on that goroutine. The core components stay
// lock-free because the loop serializes them.
package reactor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/taproot/internal/logging"
	"github.com/aretw0/taproot/pkg/ports"
)

// ErrClosed is returned by Call once the loop has shut down.
var ErrClosed = errors.New("reactor: loop closed")

// Loop is a single-goroutine task executor implementing ports.Scheduler.
//
// The pending queue is unbounded: tasks frequently post further tasks from
// the loop goroutine itself (every armed subscription delivers through
// Schedule(0)), and a bounded buffer would deadlock the loop the moment one
// task fans out more work than the buffer holds.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake   chan struct{}
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for recovered task panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New starts a loop. Callers own it and must Close it.
func New(opts ...Option) *Loop {
	l := &Loop{
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		for {
			l.mu.Lock()
			batch := l.queue
			l.queue = nil
			l.mu.Unlock()
			if len(batch) == 0 {
				break
			}
			for _, fn := range batch {
				select {
				case <-l.quit:
					return
				default:
				}
				l.invoke(fn)
			}
		}

		select {
		case <-l.quit:
			return
		case <-l.wake:
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("task panicked", "error", r)
		}
	}()
	fn()
}

// post appends fn to the queue and nudges the runner. It reports false once
// the loop is closed. It never blocks, so it is safe from any goroutine,
// including the loop's own.
func (l *Loop) post(fn func()) bool {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do posts fn for asynchronous execution on the loop. Tasks posted after
// Close are dropped.
func (l *Loop) Do(fn func()) {
	l.post(fn)
}

// Call runs fn on the loop and waits for its result. It is how foreign
// goroutines (HTTP handlers, CLIs) enter the single-threaded world; calling
// it from a task already on the loop would wait on itself.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !l.post(func() { result <- fn() }) {
		return ErrClosed
	}

	select {
	case err := <-result:
		return err
	case <-l.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule arranges for fn to run on the loop after delay. Zero and negative
// delays post directly, preserving submission order with Do.
func (l *Loop) Schedule(delay time.Duration, fn func()) ports.Timer {
	t := &timer{}
	deliver := func() {
		l.Do(func() {
			if t.begin() {
				fn()
			}
		})
	}
	if delay <= 0 {
		deliver()
		return t
	}
	t.arm(time.AfterFunc(delay, deliver))
	return t
}

// Cancel stops a pending timer. Unknown, nil, fired, or already canceled
// handles are ignored.
func (l *Loop) Cancel(pt ports.Timer) {
	t, ok := pt.(*timer)
	if !ok || t == nil {
		return
	}
	t.cancel()
}

// Close stops the loop and discards pending tasks. Scheduled callbacks that
// have not fired are dropped. Close is idempotent.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		close(l.quit)
	})
	<-l.done
}
