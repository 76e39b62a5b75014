package history

import (
	"reflect"

	"github.com/calliope-studio/calliope/internal/entity"
	"github.com/calliope-studio/calliope/internal/state"
)

// Snapshot is an immutable, independently-owned copy of the tracked subset
// of the application state at one instant: shots, assets, task queue,
// project, and the shot selection.
//
// Ownership: once created a snapshot belongs solely to its stack entry. It
// never aliases live state - every field, including nested slices and maps,
// is cloned at capture - so later mutation of the application state cannot
// corrupt a stored snapshot, and vice versa. A snapshot is never mutated
// after creation; it is destroyed only by capacity eviction or by a
// push-after-undo truncation.
type Snapshot struct {
	// Seq is the logical clock stamp assigned at capture. It identifies
	// the snapshot in traces and is excluded from state equality.
	Seq int64

	Shots          []entity.Shot
	Assets         []entity.Asset
	TaskQueue      []entity.Task
	Project        *entity.Project
	SelectedShotID string
}

// Capture deep-copies the tracked fields of the given state into a new
// snapshot. A nil Project is stored as nil - an absent project is a valid
// state, not an error. Entities are plain acyclic records; the typed Clone
// methods make the copy without any serialization round-trip.
func Capture(st *state.AppState) Snapshot {
	snap := Snapshot{
		SelectedShotID: st.SelectedShotID,
	}
	if st.Shots != nil {
		snap.Shots = make([]entity.Shot, len(st.Shots))
		for i, s := range st.Shots {
			snap.Shots[i] = s.Clone()
		}
	}
	if st.Assets != nil {
		snap.Assets = make([]entity.Asset, len(st.Assets))
		for i, a := range st.Assets {
			snap.Assets[i] = a.Clone()
		}
	}
	if st.TaskQueue != nil {
		snap.TaskQueue = make([]entity.Task, len(st.TaskQueue))
		for i, t := range st.TaskQueue {
			snap.TaskQueue[i] = t.Clone()
		}
	}
	if st.Project != nil {
		p := st.Project.Clone()
		snap.Project = &p
	}
	return snap
}

// Restore produces a partial-state patch from the snapshot. The patch
// contents are fresh copies - applying the patch and then mutating the
// store never reaches back into the stored snapshot.
func Restore(snap Snapshot) state.Patch {
	patch := state.Patch{
		HasShots:          true,
		HasAssets:         true,
		HasTaskQueue:      true,
		HasProject:        true,
		HasSelectedShotID: true,
		SelectedShotID:    snap.SelectedShotID,
	}
	if snap.Shots != nil {
		patch.Shots = make([]entity.Shot, len(snap.Shots))
		for i, s := range snap.Shots {
			patch.Shots[i] = s.Clone()
		}
	}
	if snap.Assets != nil {
		patch.Assets = make([]entity.Asset, len(snap.Assets))
		for i, a := range snap.Assets {
			patch.Assets[i] = a.Clone()
		}
	}
	if snap.TaskQueue != nil {
		patch.TaskQueue = make([]entity.Task, len(snap.TaskQueue))
		for i, t := range snap.TaskQueue {
			patch.TaskQueue[i] = t.Clone()
		}
	}
	if snap.Project != nil {
		p := snap.Project.Clone()
		patch.Project = &p
	}
	return patch
}

// SameState reports whether two snapshots capture structurally equal state.
// Seq is ignored: two captures of the same state taken at different times
// are the same state. Used by the first-undo-captures-current check.
func (s Snapshot) SameState(other Snapshot) bool {
	a, b := s, other
	a.Seq, b.Seq = 0, 0
	return reflect.DeepEqual(a, b)
}
