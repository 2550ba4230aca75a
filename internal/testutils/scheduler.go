package testutils

import (
	"time"

	"github.com/aretw0/taproot/pkg/ports"
)

// ManualScheduler is a ports.Scheduler driven by a hand-cranked clock, so
// debounce behavior can be tested without sleeping. Zero-delay work runs
// inline; delayed work runs when Advance crosses its deadline. Everything is
// synchronous on the caller's goroutine, which matches the single-threaded
// model the persistence core assumes.
type ManualScheduler struct {
	now     time.Duration
	pending []*manualTimer
}

// NewManualScheduler creates a scheduler at clock zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Schedule registers fn to run once the clock reaches now+delay.
func (s *ManualScheduler) Schedule(delay time.Duration, fn func()) ports.Timer {
	t := &manualTimer{deadline: s.now + delay, fn: fn}
	if delay <= 0 {
		t.fired = true
		fn()
		return t
	}
	s.pending = append(s.pending, t)
	return t
}

// Cancel stops a pending timer. Inactive handles are ignored.
func (s *ManualScheduler) Cancel(pt ports.Timer) {
	t, ok := pt.(*manualTimer)
	if !ok || t == nil || t.fired {
		return
	}
	t.canceled = true
}

// Advance moves the clock forward and fires every timer whose deadline was
// reached, in registration order. Callbacks may schedule more work; newly due
// work fires within the same Advance.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.now += d
	for {
		fired := false
		for _, t := range s.pending {
			if t.fired || t.canceled || t.deadline > s.now {
				continue
			}
			t.fired = true
			t.fn()
			fired = true
		}
		s.compact()
		if !fired {
			return
		}
	}
}

// Pending returns the number of live timers, for asserting that nothing is
// scheduled when nothing should be.
func (s *ManualScheduler) Pending() int {
	n := 0
	for _, t := range s.pending {
		if !t.fired && !t.canceled {
			n++
		}
	}
	return n
}

func (s *ManualScheduler) compact() {
	kept := s.pending[:0]
	for _, t := range s.pending {
		if !t.fired && !t.canceled {
			kept = append(kept, t)
		}
	}
	s.pending = kept
}

type manualTimer struct {
	deadline time.Duration
	fn       func()
	fired    bool
	canceled bool
}

// Active reports whether the callback is still pending.
func (t *manualTimer) Active() bool {
	return !t.fired && !t.canceled
}
