package snapshot

import "time"

// Hooks are optional lifecycle callbacks. The core stays metrics-free;
// observability (counters, histograms, SSE fan-out) hangs off these instead.
// Hooks run on the persistence loop and must return quickly.
type Hooks struct {
	// OnChange runs on every dirty signal. With the detector wired to the
	// writer that is once per change burst.
	OnChange func()

	// OnFlush runs after every flush attempt, successful or not.
	OnFlush func(FlushEvent)
}

// FlushEvent describes one flush attempt.
type FlushEvent struct {
	// Duration is how long the store write took. Zero when serialization
	// failed before reaching the store.
	Duration time.Duration

	// Err is nil on success.
	Err error
}

func (h Hooks) changed() {
	if h.OnChange != nil {
		h.OnChange()
	}
}

func (h Hooks) flushed(e FlushEvent) {
	if h.OnFlush != nil {
		h.OnFlush(e)
	}
}
