// Package tasks runs queued generation jobs against the state store.
//
// The store owns task records and their status transitions; this package
// owns scheduling: a thread-safe FIFO of pending work plus a runner loop
// that drains it. The queue is the concurrency boundary - handlers and
// store transitions all execute on the runner's goroutine, preserving the
// single-writer discipline of the store.
package tasks

import "sync"

// Item is one unit of pending work, referencing a task record by ID.
type Item struct {
	TaskID   string
	Kind     string
	TargetID string
}

// Queue is a thread-safe FIFO queue of work items.
//
// The queue is unbounded so bursts of wizard output can enqueue freely
// without blocking the UI thread.
//
// Thread-safety covers external enqueuing while the runner loop dequeues.
// The signal channel enables context-aware waiting in the runner loop.
type Queue struct {
	mu     sync.Mutex
	items  []Item
	closed bool
	signal chan struct{} // buffered, size 1: coalesces wakeups
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		items:  make([]Item, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an item to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *Queue) Enqueue(it Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, it)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Item{}, false) if the queue is empty.
func (q *Queue) TryDequeue() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Item{}, false
	}

	it := q.items[0]
	q.items[0] = Item{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return it, true
}

// Wait returns a channel that signals when items may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *Queue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether the queue has been closed.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more items will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
