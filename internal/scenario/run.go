package scenario

import (
	"fmt"

	"github.com/calliope-studio/calliope/internal/entity"
	"github.com/calliope-studio/calliope/internal/history"
	"github.com/calliope-studio/calliope/internal/state"
	"github.com/calliope-studio/calliope/internal/testutil"
)

// TraceEvent records the state summary after one executed step.
type TraceEvent struct {
	Op    string         `json:"op"`
	Seq   int64          `json:"seq"`
	State map[string]any `json:"state"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per top-level step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failures. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// AddError records an assertion failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

type runner struct {
	store   *state.Store
	tracker *history.Tracker
	clock   *testutil.DeterministicClock
}

// Run executes a scenario against a fresh store and tracker. Entity IDs
// come from a seeded generator and trace sequence numbers from a
// deterministic clock, so two runs of the same scenario produce identical
// traces.
func Run(s *Scenario) (*Result, error) {
	logger := testutil.SilentLogger()
	r := &runner{
		store: state.NewStore(
			state.WithIDGenerator(entity.NewSeededGenerator("id")),
			state.WithLogger(logger),
		),
		clock: testutil.NewDeterministicClock(),
	}
	r.tracker = history.NewTracker(r.store, logger)

	result := &Result{Pass: true, Trace: []TraceEvent{}}

	for i, step := range s.Steps {
		if err := r.execute(step); err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
		result.Trace = append(result.Trace, TraceEvent{
			Op:    step.Op,
			Seq:   r.clock.Next(),
			State: r.stateSummary(),
		})
	}

	for i, a := range s.Assertions {
		r.assert(result, i, a)
	}

	return result, nil
}

// execute runs one top-level step. Mutating steps go through the history
// wrapper; batch sub-steps mutate directly inside a single Batch call.
func (r *runner) execute(step Step) error {
	switch step.Op {
	case OpBatch:
		var err error
		r.tracker.Batch(func() {
			for _, sub := range step.Steps {
				if err = r.mutate(sub); err != nil {
					return
				}
			}
		})
		return err
	case OpPush:
		r.tracker.PushHistory()
		return nil
	case OpUndo:
		r.tracker.Undo()
		return nil
	case OpRedo:
		r.tracker.Redo()
		return nil
	default:
		return history.Wrap(r.tracker, func() error {
			return r.mutate(step)
		})()
	}
}

// mutate applies one mutating step directly to the store.
func (r *runner) mutate(step Step) error {
	switch step.Op {
	case OpAddShot:
		_, err := r.store.AddShot(entity.Shot{Title: step.Title})
		return err
	case OpUpdateShot:
		shot, err := r.shotByTitle(step.Title)
		if err != nil {
			return err
		}
		shot.Title = step.NewTitle
		return r.store.UpdateShot(shot)
	case OpRemoveShot:
		shot, err := r.shotByTitle(step.Title)
		if err != nil {
			return err
		}
		return r.store.RemoveShot(shot.ID)
	case OpMoveShot:
		shot, err := r.shotByTitle(step.Title)
		if err != nil {
			return err
		}
		return r.store.MoveShot(shot.ID, *step.Position)
	case OpSelectShot:
		shot, err := r.shotByTitle(step.Title)
		if err != nil {
			return err
		}
		return r.store.SelectShot(shot.ID)
	case OpAddAsset:
		_, err := r.store.AddAsset(entity.Asset{Kind: step.Kind, Name: step.Name})
		return err
	case OpAddCharacter:
		_, err := r.store.AddCharacter(entity.Character{Name: step.Name})
		return err
	case OpEnqueueTask:
		task := entity.Task{Kind: step.Kind}
		if step.Title != "" {
			shot, err := r.shotByTitle(step.Title)
			if err != nil {
				return err
			}
			task.TargetID = shot.ID
		}
		_, err := r.store.EnqueueTask(task)
		return err
	default:
		return fmt.Errorf("op %q is not a mutation", step.Op)
	}
}

func (r *runner) shotByTitle(title string) (entity.Shot, error) {
	for _, s := range r.store.Get().Shots {
		if s.Title == title {
			return s, nil
		}
	}
	return entity.Shot{}, fmt.Errorf("no shot titled %q", title)
}

// stateSummary projects the tracked state and history shape for the trace.
// Values are canonical-JSON-safe: strings, ints, bools, arrays.
func (r *runner) stateSummary() map[string]any {
	st := r.store.Get()

	titles := make([]any, len(st.Shots))
	for i, s := range st.Shots {
		titles[i] = s.Title
	}

	m := map[string]any{
		"shots":       titles,
		"history_len": r.tracker.Stack().Len(),
		"cursor":      r.tracker.Stack().Cursor(),
		"tasks":       len(st.TaskQueue),
	}
	if st.SelectedShotID != "" {
		for _, s := range st.Shots {
			if s.ID == st.SelectedShotID {
				m["selected_shot"] = s.Title
				break
			}
		}
	}
	return m
}

func (r *runner) assert(result *Result, index int, a Assertion) {
	st := r.store.Get()
	stack := r.tracker.Stack()

	switch a.Type {
	case AssertShotTitles:
		got := make([]string, len(st.Shots))
		for i, s := range st.Shots {
			got[i] = s.Title
		}
		if !equalStrings(got, a.Titles) {
			result.AddError(fmt.Sprintf(
				"assertions[%d] shot_titles: expected %v, got %v", index, a.Titles, got))
		}
	case AssertShotCount:
		if len(st.Shots) != *a.Count {
			result.AddError(fmt.Sprintf(
				"assertions[%d] shot_count: expected %d, got %d", index, *a.Count, len(st.Shots)))
		}
	case AssertHistoryLength:
		if stack.Len() != *a.Count {
			result.AddError(fmt.Sprintf(
				"assertions[%d] history_length: expected %d, got %d", index, *a.Count, stack.Len()))
		}
	case AssertCursor:
		if stack.Cursor() != *a.Value {
			result.AddError(fmt.Sprintf(
				"assertions[%d] cursor: expected %d, got %d", index, *a.Value, stack.Cursor()))
		}
	case AssertCanUndo:
		if stack.CanUndo() != *a.Enabled {
			result.AddError(fmt.Sprintf(
				"assertions[%d] can_undo: expected %t, got %t", index, *a.Enabled, stack.CanUndo()))
		}
	case AssertCanRedo:
		if stack.CanRedo() != *a.Enabled {
			result.AddError(fmt.Sprintf(
				"assertions[%d] can_redo: expected %t, got %t", index, *a.Enabled, stack.CanRedo()))
		}
	case AssertSelectedShot:
		got := ""
		for _, s := range st.Shots {
			if s.ID == st.SelectedShotID {
				got = s.Title
				break
			}
		}
		if got != a.Title {
			result.AddError(fmt.Sprintf(
				"assertions[%d] selected_shot: expected %q, got %q", index, a.Title, got))
		}
	case AssertTaskCount:
		if len(st.TaskQueue) != *a.Count {
			result.AddError(fmt.Sprintf(
				"assertions[%d] task_count: expected %d, got %d", index, *a.Count, len(st.TaskQueue)))
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
