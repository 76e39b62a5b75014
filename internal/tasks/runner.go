package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/calliope-studio/calliope/internal/entity"
	"github.com/calliope-studio/calliope/internal/state"
)

// TaskError represents a scheduling or execution failure for one task.
type TaskError struct {
	Code    TaskErrorCode
	TaskID  string
	Kind    string
	Message string
}

// TaskErrorCode categorizes task errors.
type TaskErrorCode string

const (
	// ErrCodeUnknownKind indicates no handler is registered for the task kind.
	ErrCodeUnknownKind TaskErrorCode = "UNKNOWN_KIND"

	// ErrCodeHandlerFailed indicates the handler returned an error.
	ErrCodeHandlerFailed TaskErrorCode = "HANDLER_FAILED"
)

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: task %s (%s): %s", e.Code, e.TaskID, e.Kind, e.Message)
}

// IsUnknownKind returns true if the error is an unknown-kind error.
// Uses errors.As to handle wrapped errors.
func IsUnknownKind(err error) bool {
	var te *TaskError
	return errors.As(err, &te) && te.Code == ErrCodeUnknownKind
}

// Handler executes one task. Handlers run on the runner's goroutine and
// may mutate the store directly; the single-writer contract holds because
// the runner is the writer while it runs.
type Handler func(ctx context.Context, task entity.Task) error

// Runner drains the work queue, driving each task through its store
// lifecycle: queued -> running -> done, or queued -> running -> failed.
type Runner struct {
	store    *state.Store
	queue    *Queue
	handlers map[string]Handler
	logger   *slog.Logger
}

// NewRunner creates a runner over a store and queue.
func NewRunner(store *state.Store, queue *Queue, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:    store,
		queue:    queue,
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Register installs the handler for a task kind, replacing any previous
// handler for that kind.
func (r *Runner) Register(kind string, h Handler) {
	r.handlers[kind] = h
}

// Submit records a task in the store and schedules it for execution.
// The store assigns the task ID and sequence number.
func (r *Runner) Submit(task entity.Task) (entity.Task, error) {
	task, err := r.store.EnqueueTask(task)
	if err != nil {
		return entity.Task{}, err
	}
	if !r.queue.Enqueue(Item{TaskID: task.ID, Kind: task.Kind, TargetID: task.TargetID}) {
		return entity.Task{}, fmt.Errorf("submit task %s: queue closed", task.ID)
	}
	return task, nil
}

// Run processes items until the context is cancelled or the queue is
// closed and drained. Failed tasks are marked failed in the store and the
// loop continues; Run only returns an error on context cancellation.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if it, ok := r.queue.TryDequeue(); ok {
			r.runOne(ctx, it)
			continue
		}
		if r.queue.Closed() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.queue.Wait():
		}
	}
}

// Drain processes everything currently queued without waiting for more.
// Useful for deterministic tests and synchronous CLI runs.
func (r *Runner) Drain(ctx context.Context) {
	for {
		it, ok := r.queue.TryDequeue()
		if !ok {
			return
		}
		r.runOne(ctx, it)
	}
}

func (r *Runner) runOne(ctx context.Context, it Item) {
	idx := r.findTask(it.TaskID)
	if idx < 0 {
		// Task record removed (e.g. undo rolled the queue back). Nothing
		// to run against.
		r.logger.Debug("skipping vanished task", "task", it.TaskID)
		return
	}
	task := r.store.Get().TaskQueue[idx]

	h, ok := r.handlers[it.Kind]
	if !ok {
		err := &TaskError{Code: ErrCodeUnknownKind, TaskID: it.TaskID, Kind: it.Kind,
			Message: "no handler registered"}
		r.logger.Warn("task failed", "task", it.TaskID, "error", err)
		if serr := r.store.StartTask(it.TaskID); serr == nil {
			r.store.FailTask(it.TaskID, err.Error())
		}
		return
	}

	if err := r.store.StartTask(it.TaskID); err != nil {
		r.logger.Warn("task not startable", "task", it.TaskID, "error", err)
		return
	}

	if err := h(ctx, task); err != nil {
		te := &TaskError{Code: ErrCodeHandlerFailed, TaskID: it.TaskID, Kind: it.Kind,
			Message: err.Error()}
		r.logger.Warn("task failed", "task", it.TaskID, "error", te)
		r.store.FailTask(it.TaskID, te.Message)
		return
	}

	if err := r.store.CompleteTask(it.TaskID); err != nil {
		r.logger.Warn("task completion lost", "task", it.TaskID, "error", err)
	}
}

func (r *Runner) findTask(id string) int {
	for i, t := range r.store.Get().TaskQueue {
		if t.ID == id {
			return i
		}
	}
	return -1
}
