/*
Package snapshot implements change detection and debounced persistence over a
state tree.

Detector turns a serialization walk into a change trap: every pull re-arms a
fresh set of subscriptions across the reachable tree, and the first mutation
afterwards collapses into exactly one callback. Writer turns those callbacks
into durable writes, coalescing bursts with a schedule-if-absent timer and
re-pulling the tree at flush time so the stored document is never stale.

Both components are confined to a single reactor loop and hold no locks; see
the reactor package for the execution model.
*/
package snapshot
