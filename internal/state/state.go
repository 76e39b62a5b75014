// Package state holds the live application state for a studio session and
// the single-writer Store that owns it.
//
// Execution model: single-threaded, synchronous, cooperative. All mutation
// and all snapshot/restore calls happen on the same logical goroutine (the
// UI event loop in the embedding application). The Store therefore takes no
// locks in the mutation path; correctness depends on the single-writer
// contract holding. The task queue at the edge of this model is thread-safe
// separately (see internal/tasks).
package state

import "github.com/calliope-studio/calliope/internal/entity"

// AppState is the mutable aggregate of entity collections and session
// fields. Owned exclusively by a Store; all mutation goes through declared
// Store operations. External code must not retain references to the nested
// slices across mutations.
//
// Tracked fields (participating in history snapshots): Shots, Assets,
// TaskQueue, Project, SelectedShotID. Everything else is session-local UI
// state and is deliberately excluded from undo/redo.
type AppState struct {
	Shots      []entity.Shot
	Assets     []entity.Asset
	Characters []entity.Character
	Worlds     []entity.World
	Stories    []entity.Story
	TaskQueue  []entity.Task
	Project    *entity.Project

	SelectedShotID      string
	SelectedCharacterID string

	// Session-only UI fields. Never snapshotted; PanelSizes is the only
	// field persisted across sessions (archive preferences).
	Playing    bool
	PanelSizes map[string]int
}

// Patch is a partial-state update covering exactly the tracked fields.
// Each Has flag marks whether the corresponding field is set; unset fields
// are left untouched by Store.Apply. Project is settable to nil (a project
// may legitimately be absent).
type Patch struct {
	Shots    []entity.Shot
	HasShots bool

	Assets    []entity.Asset
	HasAssets bool

	TaskQueue    []entity.Task
	HasTaskQueue bool

	Project    *entity.Project
	HasProject bool

	SelectedShotID    string
	HasSelectedShotID bool
}
