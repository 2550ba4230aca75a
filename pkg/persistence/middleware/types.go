// Package middleware wraps a SnapshotStore with crosscutting behavior the
// persistence core should not know about: at-rest encryption and PII
// masking. Middlewares compose: Chain(m1, m2)(store) applies m1 outermost.
package middleware

import "github.com/aretw0/taproot/pkg/ports"

// Middleware allows wrapping a SnapshotStore to add behavior.
type Middleware func(ports.SnapshotStore) ports.SnapshotStore

// Chain composes middlewares so the first listed sees operations first.
func Chain(ms ...Middleware) Middleware {
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		for i := len(ms) - 1; i >= 0; i-- {
			next = ms[i](next)
		}
		return next
	}
}
