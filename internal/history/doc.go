// Package history implements linear, snapshot-based undo/redo for the
// studio state container.
//
// Three pieces:
//
//   - The snapshot codec (Capture/Restore) deep-copies the tracked subset of
//     the application state in both directions, so stored snapshots never
//     alias live state.
//   - The Stack keeps an ordered sequence of snapshots plus a cursor. Push
//     discards the redo branch, appends, and enforces a fixed capacity with
//     FIFO eviction. Undo and redo move the cursor; at the boundaries they
//     are benign no-ops observable only through an advisory log line and the
//     CanUndo/CanRedo predicates.
//   - The Tracker binds a Stack to a state.Store: it captures a snapshot
//     immediately before a wrapped operation runs, collapses batched
//     mutations into one undoable step, and applies restored snapshots back
//     onto the store.
//
// The history is linear, not branching: pushing after an undo permanently
// discards everything after the cursor. It lives for the process lifetime
// only and is never persisted.
//
// Like the store it decorates, this package follows the single-writer
// execution contract: all calls happen on one logical goroutine and run to
// completion within a tick.
package history
