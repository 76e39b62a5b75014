package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calliope-studio/calliope/internal/entity"
)

func newTestStore() *Store {
	return NewStore(WithIDGenerator(entity.NewSeededGenerator("id")))
}

func TestStore_AddShot_AssignsIDAndPosition(t *testing.T) {
	s := newTestStore()

	a, err := s.AddShot(entity.Shot{Title: "one"})
	require.NoError(t, err)
	b, err := s.AddShot(entity.Shot{Title: "two"})
	require.NoError(t, err)

	assert.Equal(t, "id-1", a.ID)
	assert.Equal(t, "id-2", b.ID)
	assert.Equal(t, 0, s.Get().Shots[0].Position)
	assert.Equal(t, 1, s.Get().Shots[1].Position)
}

func TestStore_AddShot_DuplicateID(t *testing.T) {
	s := newTestStore()

	_, err := s.AddShot(entity.Shot{ID: "s1", Title: "one"})
	require.NoError(t, err)
	_, err = s.AddShot(entity.Shot{ID: "s1", Title: "again"})

	require.Error(t, err)
	assert.True(t, IsDuplicateID(err))
}

func TestStore_UpdateShot_PreservesPosition(t *testing.T) {
	s := newTestStore()
	s.AddShot(entity.Shot{ID: "s1", Title: "one"})
	s.AddShot(entity.Shot{ID: "s2", Title: "two"})

	err := s.UpdateShot(entity.Shot{ID: "s2", Title: "renamed", Position: 99})
	require.NoError(t, err)

	assert.Equal(t, "renamed", s.Get().Shots[1].Title)
	assert.Equal(t, 1, s.Get().Shots[1].Position)
}

func TestStore_UpdateShot_NotFound(t *testing.T) {
	s := newTestStore()

	err := s.UpdateShot(entity.Shot{ID: "ghost"})

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestStore_RemoveShot_RenumbersAndClearsSelection(t *testing.T) {
	s := newTestStore()
	s.AddShot(entity.Shot{ID: "s1", Title: "one"})
	s.AddShot(entity.Shot{ID: "s2", Title: "two"})
	s.AddShot(entity.Shot{ID: "s3", Title: "three"})
	require.NoError(t, s.SelectShot("s2"))

	require.NoError(t, s.RemoveShot("s2"))

	st := s.Get()
	require.Len(t, st.Shots, 2)
	assert.Equal(t, "s1", st.Shots[0].ID)
	assert.Equal(t, "s3", st.Shots[1].ID)
	assert.Equal(t, 1, st.Shots[1].Position)
	assert.Empty(t, st.SelectedShotID)
}

func TestStore_MoveShot(t *testing.T) {
	s := newTestStore()
	s.AddShot(entity.Shot{ID: "s1"})
	s.AddShot(entity.Shot{ID: "s2"})
	s.AddShot(entity.Shot{ID: "s3"})

	require.NoError(t, s.MoveShot("s3", 0))

	st := s.Get()
	assert.Equal(t, []string{"s3", "s1", "s2"},
		[]string{st.Shots[0].ID, st.Shots[1].ID, st.Shots[2].ID})
	assert.Equal(t, 0, st.Shots[0].Position)
	assert.Equal(t, 2, st.Shots[2].Position)
}

func TestStore_MoveShot_OutOfRange(t *testing.T) {
	s := newTestStore()
	s.AddShot(entity.Shot{ID: "s1"})

	err := s.MoveShot("s1", 5)

	require.Error(t, err)
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, ErrCodeInvalidPosition, oe.Code)
}

func TestStore_SelectShot_UnknownID(t *testing.T) {
	s := newTestStore()

	err := s.SelectShot("ghost")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestStore_RemoveAsset_StripsShotReferences(t *testing.T) {
	s := newTestStore()
	s.AddAsset(entity.Asset{ID: "a1", Kind: "image", Name: "bg"})
	s.AddShot(entity.Shot{ID: "s1", AssetIDs: []string{"a1", "a2"}})

	require.NoError(t, s.RemoveAsset("a1"))

	assert.Empty(t, s.Get().Assets)
	assert.Equal(t, []string{"a2"}, s.Get().Shots[0].AssetIDs)
}

func TestStore_RemoveCharacter_StripsStoryReferences(t *testing.T) {
	s := newTestStore()
	s.AddCharacter(entity.Character{ID: "c1", Name: "Mira"})
	s.AddStory(entity.Story{ID: "st1", Title: "Arrival", CharacterIDs: []string{"c1", "c2"}})

	require.NoError(t, s.RemoveCharacter("c1"))

	assert.Empty(t, s.Get().Characters)
	assert.Equal(t, []string{"c2"}, s.Get().Stories[0].CharacterIDs)
}

func TestStore_TaskLifecycle(t *testing.T) {
	s := newTestStore()

	task, err := s.EnqueueTask(entity.Task{Kind: "render"})
	require.NoError(t, err)
	assert.Equal(t, entity.TaskQueued, task.Status)
	assert.Equal(t, int64(1), task.Seq)

	require.NoError(t, s.StartTask(task.ID))
	assert.Equal(t, entity.TaskRunning, s.Get().TaskQueue[0].Status)

	require.NoError(t, s.CompleteTask(task.ID))
	assert.Empty(t, s.Get().TaskQueue, "completed tasks leave the queue")
}

func TestStore_FailTask_StaysInQueue(t *testing.T) {
	s := newTestStore()
	task, _ := s.EnqueueTask(entity.Task{Kind: "render"})
	require.NoError(t, s.StartTask(task.ID))

	require.NoError(t, s.FailTask(task.ID, "model unavailable"))

	require.Len(t, s.Get().TaskQueue, 1)
	assert.Equal(t, entity.TaskFailed, s.Get().TaskQueue[0].Status)
	assert.Equal(t, "model unavailable", s.Get().TaskQueue[0].Error)
}

func TestStore_StartTask_InvalidTransition(t *testing.T) {
	s := newTestStore()
	task, _ := s.EnqueueTask(entity.Task{Kind: "render"})
	require.NoError(t, s.StartTask(task.ID))

	err := s.StartTask(task.ID)

	require.Error(t, err)
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, ErrCodeInvalidTransition, oe.Code)
}

func TestStore_TaskSeq_Monotonic(t *testing.T) {
	s := newTestStore()

	t1, _ := s.EnqueueTask(entity.Task{Kind: "a"})
	t2, _ := s.EnqueueTask(entity.Task{Kind: "b"})
	t3, _ := s.EnqueueTask(entity.Task{Kind: "c"})

	assert.Less(t, t1.Seq, t2.Seq)
	assert.Less(t, t2.Seq, t3.Seq)
}

func TestStore_Subscribe_NotifiedOnMutation(t *testing.T) {
	s := newTestStore()

	var calls int
	s.Subscribe(func() { calls++ })

	s.AddShot(entity.Shot{Title: "one"})
	s.SetPlaying(true)
	s.Apply(Patch{HasSelectedShotID: true, SelectedShotID: ""})

	assert.Equal(t, 3, calls)
}

func TestStore_Apply_UnsetFieldsUntouched(t *testing.T) {
	s := newTestStore()
	s.AddShot(entity.Shot{ID: "s1", Title: "keep"})
	s.SetProject(&entity.Project{ID: "p1", Name: "reel"})

	s.Apply(Patch{HasSelectedShotID: true, SelectedShotID: "s1"})

	require.Len(t, s.Get().Shots, 1)
	require.NotNil(t, s.Get().Project)
	assert.Equal(t, "s1", s.Get().SelectedShotID)
}

func TestStore_Apply_ProjectNilable(t *testing.T) {
	s := newTestStore()
	s.SetProject(&entity.Project{ID: "p1"})

	s.Apply(Patch{HasProject: true, Project: nil})

	assert.Nil(t, s.Get().Project)
}

func TestClock_Monotonic(t *testing.T) {
	c := NewClockAt(10)

	assert.Equal(t, int64(11), c.Next())
	assert.Equal(t, int64(12), c.Next())
	assert.Equal(t, int64(12), c.Current())
}
