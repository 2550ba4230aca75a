package ports

import "time"

// Timer is the handle for one scheduled callback.
type Timer interface {
	// Active reports whether the callback is still pending: not yet fired
	// and not canceled.
	Active() bool
}

// Scheduler is the delayed-callback capability consumed by the persistence
// core. Implementations must deliver fn on the same logical thread as every
// other callback (see the reactor package); fn never runs concurrently with
// another scheduled callback.
type Scheduler interface {
	// Schedule arranges for fn to run after delay.
	Schedule(delay time.Duration, fn func()) Timer

	// Cancel stops a pending timer. Canceling a nil, fired, or already
	// canceled timer is a no-op.
	Cancel(t Timer)
}
