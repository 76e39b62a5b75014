package history

import (
	"log/slog"

	"github.com/calliope-studio/calliope/internal/state"
)

// Tracker binds a history Stack to a state.Store.
//
// History tracking is opt-in decoration, not a built-in cost of every
// mutation: only operations run through the Wrap helpers or an explicit
// PushHistory/Batch participate. Pure UI-preference toggles (playback,
// panel sizes) are deliberately never wrapped.
type Tracker struct {
	store  *state.Store
	stack  *Stack
	logger *slog.Logger
}

// NewTracker creates a tracker over the given store with an empty stack.
// A nil logger falls back to slog.Default().
func NewTracker(store *state.Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:  store,
		stack:  NewStack(logger),
		logger: logger,
	}
}

// Stack exposes the underlying stack for inspection (tests, trace output).
func (t *Tracker) Stack() *Stack {
	return t.stack
}

// capture snapshots the store's current state, stamped with the next
// logical clock seq.
func (t *Tracker) capture() Snapshot {
	snap := Capture(t.store.Get())
	snap.Seq = t.store.Clock().Next()
	return snap
}

// PushHistory captures the current state and pushes it as the new current
// history position. Called automatically by the Wrap helpers and Batch;
// call it directly when mutating the store through a raw operation that
// should still be undoable.
func (t *Tracker) PushHistory() {
	t.stack.Push(t.capture())
}

// Undo steps back one history position and restores that snapshot into the
// store. Returns false (leaving the store untouched) when CanUndo is false.
func (t *Tracker) Undo() bool {
	snap, ok := t.stack.Undo(t.capture())
	if !ok {
		return false
	}
	t.store.Apply(Restore(snap))
	return true
}

// Redo steps forward one history position and restores that snapshot into
// the store. Returns false (leaving the store untouched) when CanRedo is
// false.
func (t *Tracker) Redo() bool {
	snap, ok := t.stack.Redo()
	if !ok {
		return false
	}
	t.store.Apply(Restore(snap))
	return true
}

// CanUndo reports whether Undo would change state.
func (t *Tracker) CanUndo() bool {
	return t.stack.CanUndo()
}

// CanRedo reports whether Redo would change state.
func (t *Tracker) CanRedo() bool {
	return t.stack.CanRedo()
}

// Batch runs fn as a single undoable step: exactly one snapshot is captured
// before fn executes, no matter how many raw mutations fn performs. No
// snapshot is taken between the inner mutations - that is the point of
// batching; a multi-step logical operation must not pollute the history
// with intermediate states.
func (t *Tracker) Batch(fn func()) {
	t.PushHistory()
	fn()
}

// Wrap decorates a no-argument operation so that the pre-operation state is
// pushed onto the history immediately before the operation executes. The
// captured snapshot reflects the state before the operation even when the
// operation mutates synchronously.
func Wrap(t *Tracker, op func() error) func() error {
	return func() error {
		t.PushHistory()
		return op()
	}
}

// Wrap1 decorates a one-argument operation, preserving its signature.
func Wrap1[A any](t *Tracker, op func(A) error) func(A) error {
	return func(a A) error {
		t.PushHistory()
		return op(a)
	}
}

// Wrap2 decorates a two-argument operation, preserving its signature.
func Wrap2[A, B any](t *Tracker, op func(A, B) error) func(A, B) error {
	return func(a A, b B) error {
		t.PushHistory()
		return op(a, b)
	}
}

// WrapR decorates a one-argument operation that returns a value alongside
// its error (the store's Add* mutators have this shape).
func WrapR[A, R any](t *Tracker, op func(A) (R, error)) func(A) (R, error) {
	return func(a A) (R, error) {
		t.PushHistory()
		return op(a)
	}
}
