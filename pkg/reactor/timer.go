package reactor

import (
	"sync"
	"time"
)

// timer bridges the runtime timer goroutine and the loop, so it is the one
// place in the package that needs a lock.
type timer struct {
	mu       sync.Mutex
	t        *time.Timer
	fired    bool
	canceled bool
}

func (t *timer) arm(rt *time.Timer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled {
		// Canceled before arm finished: a pathological but possible
		// interleaving when Cancel races construction.
		rt.Stop()
		return
	}
	t.t = rt
}

// begin marks the timer fired. It returns false when the timer was canceled
// first, in which case the callback must not run.
func (t *timer) begin() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled || t.fired {
		return false
	}
	t.fired = true
	return true
}

func (t *timer) cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.canceled || t.fired {
		return
	}
	t.canceled = true
	if t.t != nil {
		t.t.Stop()
	}
}

// Active reports whether the callback is still pending.
func (t *timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.fired && !t.canceled
}
