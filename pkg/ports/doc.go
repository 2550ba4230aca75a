/*
Package ports defines the driven ports (interfaces) for the taproot
persistence core.

These interfaces decouple the core logic from external implementations,
allowing the same change-detection and debounce machinery to persist through
local files, Redis, Postgres, or a git-backed document store, and to run
against any timer source.

# Key Interfaces

  - SnapshotStore: durably holds the single serialized snapshot document.
  - Scheduler: the schedule-after-delay capability the debounced writer uses.
  - Timer: the handle for one pending scheduled callback.
*/
package ports
