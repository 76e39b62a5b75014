package state

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/calliope-studio/calliope/internal/entity"
)

// Store is the exclusive owner of an AppState.
//
// Get returns the live state; Apply installs a partial-state patch; the
// declared mutators below are the only sanctioned write paths. Subscribers
// are notified synchronously after every successful mutation, within the
// same logical tick.
//
// Store is NOT safe for concurrent use. See the package comment for the
// single-writer execution contract.
type Store struct {
	state  AppState
	clock  *Clock
	gen    entity.IDGenerator
	logger *slog.Logger
	subs   []func()
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the default UUIDv7 ID generator.
// The scenario harness and tests install deterministic generators.
func WithIDGenerator(gen entity.IDGenerator) Option {
	return func(s *Store) { s.gen = gen }
}

// WithClock overrides the default logical clock.
func WithClock(c *Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		clock:  NewClock(),
		gen:    entity.UUIDv7Generator{},
		logger: slog.Default(),
	}
	s.state.PanelSizes = make(map[string]int)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the live application state.
//
// The returned pointer aliases the store's own state: callers may read it
// freely within the current tick but must not write through it or retain it
// across mutations. There is no copy-on-read guarantee except at snapshot
// boundaries (internal/history).
func (s *Store) Get() *AppState {
	return &s.state
}

// Clock returns the store's logical clock.
func (s *Store) Clock() *Clock {
	return s.clock
}

// Subscribe registers fn to run synchronously after every successful
// mutation. Subscribers must not mutate the store re-entrantly.
func (s *Store) Subscribe(fn func()) {
	s.subs = append(s.subs, fn)
}

// Apply installs a partial-state patch onto the tracked fields.
// Unset patch fields are left untouched. Used by history restore and by
// archive loads; the patch contents must already be independently owned
// (the codec guarantees this).
func (s *Store) Apply(p Patch) {
	if p.HasShots {
		s.state.Shots = p.Shots
	}
	if p.HasAssets {
		s.state.Assets = p.Assets
	}
	if p.HasTaskQueue {
		s.state.TaskQueue = p.TaskQueue
	}
	if p.HasProject {
		s.state.Project = p.Project
	}
	if p.HasSelectedShotID {
		s.state.SelectedShotID = p.SelectedShotID
	}
	s.logger.Debug("patch applied",
		"shots", p.HasShots,
		"assets", p.HasAssets,
		"task_queue", p.HasTaskQueue,
		"project", p.HasProject,
		"selected_shot", p.HasSelectedShotID,
	)
	s.notify()
}

func (s *Store) notify() {
	for _, fn := range s.subs {
		fn()
	}
}

// --- Shot operations ---

// AddShot appends a shot to the timeline. A blank ID is filled from the
// store's ID generator; a duplicate ID is rejected.
func (s *Store) AddShot(shot entity.Shot) (entity.Shot, error) {
	if shot.ID == "" {
		shot.ID = s.gen.NewID()
	}
	if s.findShot(shot.ID) >= 0 {
		return entity.Shot{}, duplicateID("shot", shot.ID)
	}
	shot.Position = len(s.state.Shots)
	s.state.Shots = append(s.state.Shots, shot)
	s.notify()
	return shot, nil
}

// UpdateShot replaces the shot with the same ID.
// Position is preserved; use MoveShot to reorder.
func (s *Store) UpdateShot(shot entity.Shot) error {
	i := s.findShot(shot.ID)
	if i < 0 {
		return notFound("shot", shot.ID)
	}
	shot.Position = s.state.Shots[i].Position
	s.state.Shots[i] = shot
	s.notify()
	return nil
}

// RemoveShot deletes a shot and renumbers positions. Removing the selected
// shot clears the selection.
func (s *Store) RemoveShot(id string) error {
	i := s.findShot(id)
	if i < 0 {
		return notFound("shot", id)
	}
	s.state.Shots = slices.Delete(s.state.Shots, i, i+1)
	s.renumberShots()
	if s.state.SelectedShotID == id {
		s.state.SelectedShotID = ""
	}
	s.notify()
	return nil
}

// MoveShot moves a shot to a new timeline position, shifting neighbors.
func (s *Store) MoveShot(id string, pos int) error {
	i := s.findShot(id)
	if i < 0 {
		return notFound("shot", id)
	}
	if pos < 0 || pos >= len(s.state.Shots) {
		return &OpError{
			Code: ErrCodeInvalidPosition, Kind: "shot", ID: id,
			Message: fmt.Sprintf("position %d out of range [0,%d)", pos, len(s.state.Shots)),
		}
	}
	shot := s.state.Shots[i]
	s.state.Shots = slices.Delete(s.state.Shots, i, i+1)
	s.state.Shots = slices.Insert(s.state.Shots, pos, shot)
	s.renumberShots()
	s.notify()
	return nil
}

// SelectShot sets the selected shot. An empty ID clears the selection;
// a non-empty ID must reference an existing shot.
func (s *Store) SelectShot(id string) error {
	if id != "" && s.findShot(id) < 0 {
		return notFound("shot", id)
	}
	s.state.SelectedShotID = id
	s.notify()
	return nil
}

func (s *Store) findShot(id string) int {
	return slices.IndexFunc(s.state.Shots, func(sh entity.Shot) bool { return sh.ID == id })
}

func (s *Store) renumberShots() {
	for i := range s.state.Shots {
		s.state.Shots[i].Position = i
	}
}

// --- Asset operations ---

// AddAsset registers a media asset.
func (s *Store) AddAsset(asset entity.Asset) (entity.Asset, error) {
	if asset.ID == "" {
		asset.ID = s.gen.NewID()
	}
	if s.findAsset(asset.ID) >= 0 {
		return entity.Asset{}, duplicateID("asset", asset.ID)
	}
	s.state.Assets = append(s.state.Assets, asset)
	s.notify()
	return asset, nil
}

// RemoveAsset deletes an asset and strips references to it from shots.
func (s *Store) RemoveAsset(id string) error {
	i := s.findAsset(id)
	if i < 0 {
		return notFound("asset", id)
	}
	s.state.Assets = slices.Delete(s.state.Assets, i, i+1)
	for j := range s.state.Shots {
		s.state.Shots[j].AssetIDs = slices.DeleteFunc(s.state.Shots[j].AssetIDs,
			func(aid string) bool { return aid == id })
	}
	s.notify()
	return nil
}

func (s *Store) findAsset(id string) int {
	return slices.IndexFunc(s.state.Assets, func(a entity.Asset) bool { return a.ID == id })
}

// --- Character / world / story operations ---

// AddCharacter registers a character.
func (s *Store) AddCharacter(c entity.Character) (entity.Character, error) {
	if c.ID == "" {
		c.ID = s.gen.NewID()
	}
	if s.findCharacter(c.ID) >= 0 {
		return entity.Character{}, duplicateID("character", c.ID)
	}
	s.state.Characters = append(s.state.Characters, c)
	s.notify()
	return c, nil
}

// UpdateCharacter replaces the character with the same ID.
func (s *Store) UpdateCharacter(c entity.Character) error {
	i := s.findCharacter(c.ID)
	if i < 0 {
		return notFound("character", c.ID)
	}
	s.state.Characters[i] = c
	s.notify()
	return nil
}

// RemoveCharacter deletes a character and strips references from stories.
func (s *Store) RemoveCharacter(id string) error {
	i := s.findCharacter(id)
	if i < 0 {
		return notFound("character", id)
	}
	s.state.Characters = slices.Delete(s.state.Characters, i, i+1)
	for j := range s.state.Stories {
		s.state.Stories[j].CharacterIDs = slices.DeleteFunc(s.state.Stories[j].CharacterIDs,
			func(cid string) bool { return cid == id })
	}
	if s.state.SelectedCharacterID == id {
		s.state.SelectedCharacterID = ""
	}
	s.notify()
	return nil
}

func (s *Store) findCharacter(id string) int {
	return slices.IndexFunc(s.state.Characters, func(c entity.Character) bool { return c.ID == id })
}

// AddWorld registers a world.
func (s *Store) AddWorld(w entity.World) (entity.World, error) {
	if w.ID == "" {
		w.ID = s.gen.NewID()
	}
	dup := slices.ContainsFunc(s.state.Worlds, func(x entity.World) bool { return x.ID == w.ID })
	if dup {
		return entity.World{}, duplicateID("world", w.ID)
	}
	s.state.Worlds = append(s.state.Worlds, w)
	s.notify()
	return w, nil
}

// AddStory registers a story.
func (s *Store) AddStory(st entity.Story) (entity.Story, error) {
	if st.ID == "" {
		st.ID = s.gen.NewID()
	}
	dup := slices.ContainsFunc(s.state.Stories, func(x entity.Story) bool { return x.ID == st.ID })
	if dup {
		return entity.Story{}, duplicateID("story", st.ID)
	}
	s.state.Stories = append(s.state.Stories, st)
	s.notify()
	return st, nil
}

// --- Project / session operations ---

// SetProject installs the project record (nil clears it).
func (s *Store) SetProject(p *entity.Project) {
	s.state.Project = p
	s.notify()
}

// SetPlaying toggles the playback flag. Session-only: never snapshotted.
func (s *Store) SetPlaying(playing bool) {
	s.state.Playing = playing
	s.notify()
}

// SetPanelSize records a panel size in pixels. Session UI state; persisted
// via archive preferences, excluded from history.
func (s *Store) SetPanelSize(panel string, px int) {
	s.state.PanelSizes[panel] = px
	s.notify()
}

// --- Task queue operations ---

// EnqueueTask appends a queued task stamped with the next clock seq.
func (s *Store) EnqueueTask(task entity.Task) (entity.Task, error) {
	if task.ID == "" {
		task.ID = s.gen.NewID()
	}
	if s.findTask(task.ID) >= 0 {
		return entity.Task{}, duplicateID("task", task.ID)
	}
	task.Status = entity.TaskQueued
	task.Seq = s.clock.Next()
	s.state.TaskQueue = append(s.state.TaskQueue, task)
	s.notify()
	return task, nil
}

// StartTask transitions a task from queued to running.
func (s *Store) StartTask(id string) error {
	return s.transitionTask(id, entity.TaskQueued, entity.TaskRunning, "")
}

// CompleteTask transitions a task from running to done and removes it from
// the queue.
func (s *Store) CompleteTask(id string) error {
	if err := s.transitionTask(id, entity.TaskRunning, entity.TaskDone, ""); err != nil {
		return err
	}
	return s.dropTask(id)
}

// FailTask transitions a task from running to failed, recording the reason.
// Failed tasks stay in the queue for inspection.
func (s *Store) FailTask(id, reason string) error {
	return s.transitionTask(id, entity.TaskRunning, entity.TaskFailed, reason)
}

func (s *Store) transitionTask(id string, from, to entity.TaskStatus, reason string) error {
	i := s.findTask(id)
	if i < 0 {
		return notFound("task", id)
	}
	if s.state.TaskQueue[i].Status != from {
		return &OpError{
			Code: ErrCodeInvalidTransition, Kind: "task", ID: id,
			Message: fmt.Sprintf("cannot move from %q to %q", s.state.TaskQueue[i].Status, to),
		}
	}
	s.state.TaskQueue[i].Status = to
	s.state.TaskQueue[i].Error = reason
	s.notify()
	return nil
}

func (s *Store) dropTask(id string) error {
	i := s.findTask(id)
	if i < 0 {
		return notFound("task", id)
	}
	s.state.TaskQueue = slices.Delete(s.state.TaskQueue, i, i+1)
	s.notify()
	return nil
}

func (s *Store) findTask(id string) int {
	return slices.IndexFunc(s.state.TaskQueue, func(t entity.Task) bool { return t.ID == id })
}
