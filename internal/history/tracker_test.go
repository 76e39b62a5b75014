package history

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calliope-studio/calliope/internal/entity"
	"github.com/calliope-studio/calliope/internal/state"
)

func newTestTracker() (*state.Store, *Tracker) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := state.NewStore(
		state.WithIDGenerator(entity.NewSeededGenerator("id")),
		state.WithLogger(logger),
	)
	return store, NewTracker(store, logger)
}

func shotTitles(store *state.Store) []string {
	shots := store.Get().Shots
	titles := make([]string, len(shots))
	for i, s := range shots {
		titles[i] = s.Title
	}
	return titles
}

// The end-to-end scenario from the undo/redo contract: add A, add B, undo
// back to [A], redo forward to [A, B].
func TestTracker_AddUndoRedoScenario(t *testing.T) {
	store, tr := newTestTracker()
	addShot := WrapR(tr, store.AddShot)

	require.Equal(t, -1, tr.Stack().Cursor(), "empty history starts at -1")

	_, err := addShot(entity.Shot{Title: "A"})
	require.NoError(t, err)
	assert.Equal(t, 1, tr.Stack().Len())
	assert.Equal(t, 0, tr.Stack().Cursor())
	assert.False(t, tr.CanUndo(), "nothing before the first snapshot")

	_, err = addShot(entity.Shot{Title: "B"})
	require.NoError(t, err)
	assert.Equal(t, 2, tr.Stack().Len())
	assert.Equal(t, 1, tr.Stack().Cursor())
	assert.True(t, tr.CanUndo())

	require.True(t, tr.Undo())
	assert.Equal(t, []string{"A"}, shotTitles(store))

	require.True(t, tr.Redo())
	assert.Equal(t, []string{"A", "B"}, shotTitles(store))
}

func TestTracker_UndoBoundary_Idempotent(t *testing.T) {
	store, tr := newTestTracker()
	addShot := WrapR(tr, store.AddShot)
	_, err := addShot(entity.Shot{Title: "A"})
	require.NoError(t, err)

	require.False(t, tr.CanUndo())
	before := Capture(store.Get())
	cursorBefore := tr.Stack().Cursor()

	assert.False(t, tr.Undo(), "boundary undo is a no-op")

	assert.Equal(t, cursorBefore, tr.Stack().Cursor())
	assert.True(t, before.SameState(Capture(store.Get())),
		"no state field may change on a boundary undo")
}

func TestTracker_RedoBoundary_Idempotent(t *testing.T) {
	store, tr := newTestTracker()

	before := Capture(store.Get())
	assert.False(t, tr.Redo())
	assert.True(t, before.SameState(Capture(store.Get())))
}

func TestTracker_WrapCapturesPreOperationState(t *testing.T) {
	store, tr := newTestTracker()
	addShot := WrapR(tr, store.AddShot)

	_, err := addShot(entity.Shot{Title: "A"})
	require.NoError(t, err)
	_, err = addShot(entity.Shot{Title: "B"})
	require.NoError(t, err)

	// The snapshot pushed by the second call must hold pre-B state even
	// though AddShot mutated synchronously inside the wrapped call.
	require.True(t, tr.Undo())
	assert.Equal(t, []string{"A"}, shotTitles(store))
}

func TestTracker_Batch_CollapsesToOneEntry(t *testing.T) {
	store, tr := newTestTracker()
	addShot := WrapR(tr, store.AddShot)
	_, err := addShot(entity.Shot{Title: "base"})
	require.NoError(t, err)
	lenBefore := tr.Stack().Len()

	tr.Batch(func() {
		store.AddShot(entity.Shot{Title: "one"})
		store.AddShot(entity.Shot{Title: "two"})
		store.AddShot(entity.Shot{Title: "three"})
		store.SelectShot(store.Get().Shots[1].ID)
	})

	assert.Equal(t, lenBefore+1, tr.Stack().Len(),
		"a batch adds exactly one history entry")

	// One undo rolls back all four mutations together.
	require.True(t, tr.Undo())
	assert.Equal(t, []string{"base"}, shotTitles(store))
	assert.Empty(t, store.Get().SelectedShotID)
}

func TestTracker_UndoRestoresTaskQueueAndProject(t *testing.T) {
	store, tr := newTestTracker()
	store.SetProject(&entity.Project{ID: "p1", Name: "reel"})
	tr.PushHistory()

	tr.Batch(func() {
		store.SetProject(&entity.Project{ID: "p1", Name: "renamed"})
		store.EnqueueTask(entity.Task{Kind: "render"})
	})

	require.True(t, tr.Undo())
	assert.Equal(t, "reel", store.Get().Project.Name)
	assert.Empty(t, store.Get().TaskQueue)
}

func TestTracker_SessionFieldsExcluded(t *testing.T) {
	store, tr := newTestTracker()
	addShot := WrapR(tr, store.AddShot)
	_, err := addShot(entity.Shot{Title: "A"})
	require.NoError(t, err)

	store.SetPlaying(true)
	store.SetPanelSize("timeline", 320)
	_, err = addShot(entity.Shot{Title: "B"})
	require.NoError(t, err)

	require.True(t, tr.Undo())

	// Playback and panel sizes are session-only: undo leaves them alone.
	assert.True(t, store.Get().Playing)
	assert.Equal(t, 320, store.Get().PanelSizes["timeline"])
}

func TestTracker_PushAfterUndo_DiscardsRedo(t *testing.T) {
	store, tr := newTestTracker()
	addShot := WrapR(tr, store.AddShot)
	_, err := addShot(entity.Shot{Title: "A"})
	require.NoError(t, err)
	_, err = addShot(entity.Shot{Title: "B"})
	require.NoError(t, err)

	require.True(t, tr.Undo())
	require.True(t, tr.CanRedo())

	_, err = addShot(entity.Shot{Title: "C"})
	require.NoError(t, err)

	assert.False(t, tr.CanRedo(), "push after undo loses the redo branch")
	require.True(t, tr.Undo())
	assert.Equal(t, []string{"A"}, shotTitles(store))
}

func TestTracker_Wrap_PreservesErrors(t *testing.T) {
	store, tr := newTestTracker()
	removeShot := Wrap1(tr, store.RemoveShot)

	err := removeShot("ghost")

	require.Error(t, err)
	assert.True(t, state.IsNotFound(err), "wrapping must not swallow operation errors")
}

func TestTracker_Wrap2_PreservesSignature(t *testing.T) {
	store, tr := newTestTracker()
	_, err := store.AddShot(entity.Shot{ID: "s1", Title: "A"})
	require.NoError(t, err)
	_, err = store.AddShot(entity.Shot{ID: "s2", Title: "B"})
	require.NoError(t, err)
	tr.PushHistory()

	moveShot := Wrap2(tr, store.MoveShot)
	require.NoError(t, moveShot("s2", 0))
	assert.Equal(t, []string{"B", "A"}, shotTitles(store))

	require.True(t, tr.Undo())
	assert.Equal(t, []string{"A", "B"}, shotTitles(store))
}
