package history

import (
	"log/slog"
)

// MaxEntries is the history capacity. Once the stack holds this many
// snapshots, each push evicts the oldest entry (FIFO) and shifts the cursor
// so it keeps pointing at the same logical snapshot.
const MaxEntries = 50

// Stack is the ordered snapshot sequence plus a cursor.
//
// The cursor ranges over [-1, len-1]; -1 means empty. After at least one
// push the cursor always points at the snapshot representing the "current"
// position. The history is linear: push discards everything after the
// cursor.
//
// State machine for the cursor: push moves to len-1 (after truncation and
// growth), undo moves i -> i-1 for i > 0, redo moves i -> i+1 for
// i < len-1. The boundary positions are not absorbing - pushes and the
// opposite operation remain valid there.
//
// Not safe for concurrent use; see the package comment.
type Stack struct {
	entries []Snapshot
	cursor  int
	logger  *slog.Logger
}

// NewStack creates an empty stack with cursor -1.
func NewStack(logger *slog.Logger) *Stack {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stack{cursor: -1, logger: logger}
}

// Len returns the number of stored snapshots.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Cursor returns the current cursor position (-1 when empty).
func (s *Stack) Cursor() int {
	return s.cursor
}

// CanUndo reports whether an earlier snapshot exists.
func (s *Stack) CanUndo() bool {
	return s.cursor > 0
}

// CanRedo reports whether a later snapshot exists.
func (s *Stack) CanRedo() bool {
	return s.cursor < len(s.entries)-1
}

// Push appends a snapshot as the new current position.
//
// Any snapshots after the cursor are discarded first - the redo branch is
// permanently lost. If the stack then exceeds MaxEntries the oldest entry
// is evicted and the cursor decremented so it still names the same logical
// snapshot.
func (s *Stack) Push(snap Snapshot) {
	// Truncate the redo branch.
	s.entries = s.entries[:s.cursor+1]
	s.entries = append(s.entries, snap)
	s.cursor = len(s.entries) - 1
	s.evict()
}

// evict enforces the capacity invariant.
func (s *Stack) evict() {
	for len(s.entries) > MaxEntries {
		// Nil out nothing special: reslicing drops the head reference.
		s.entries = s.entries[1:]
		s.cursor--
	}
}

// Undo steps the cursor back one position and returns the snapshot now at
// the cursor for the caller to restore.
//
// At the boundary (cursor <= 0) this is a benign no-op: it returns
// (Snapshot{}, false) and logs an advisory warning. Callers are expected to
// consult CanUndo first; the no-op path exists so an unguarded call can
// never corrupt the stack.
//
// First-undo-captures-current-state: when the cursor sits on the newest
// entry and the live state differs from it (i.e. mutations happened since
// the last push), the live state is appended before stepping back. This
// guarantees the pre-undo state stays reachable via redo. The live state is
// supplied by the caller as a snapshot; the Tracker captures it from the
// store. This is the only implementation of the behavior - the store has no
// competing undo path.
func (s *Stack) Undo(live Snapshot) (Snapshot, bool) {
	if s.cursor <= 0 {
		s.logger.Warn("undo ignored: nothing earlier in history",
			"cursor", s.cursor, "len", len(s.entries))
		return Snapshot{}, false
	}

	if s.cursor == len(s.entries)-1 && !s.entries[s.cursor].SameState(live) {
		s.entries = append(s.entries, live)
		s.cursor = len(s.entries) - 1
		s.evict()
		if s.cursor <= 0 {
			// Eviction can only reach here at capacity 1; degenerate but safe.
			s.logger.Warn("undo ignored: history collapsed during capture",
				"cursor", s.cursor, "len", len(s.entries))
			return Snapshot{}, false
		}
	}

	s.cursor--
	return s.entries[s.cursor], true
}

// Redo steps the cursor forward one position and returns the snapshot now
// at the cursor.
//
// At the boundary (cursor >= len-1) this is a benign no-op with an advisory
// warning, mirroring Undo.
func (s *Stack) Redo() (Snapshot, bool) {
	if s.cursor >= len(s.entries)-1 {
		s.logger.Warn("redo ignored: nothing later in history",
			"cursor", s.cursor, "len", len(s.entries))
		return Snapshot{}, false
	}

	s.cursor++
	return s.entries[s.cursor], true
}
