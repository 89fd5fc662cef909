package syncqueue

import (
	"sync"

	"github.com/yndnr/supertracker-go/internal/core/domain"
)

// DefaultCapacity is the number of operations kept before eviction.
const DefaultCapacity = 100

// Queue is a bounded, mutex-guarded FIFO of operations.
type Queue struct {
	mu       sync.Mutex
	items    []*domain.QueuedOperation
	capacity int
}

// NewQueue creates a queue. A non-positive capacity means DefaultCapacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		items:    make([]*domain.QueuedOperation, 0, capacity),
		capacity: capacity,
	}
}

// Enqueue appends op. When the queue is full the oldest operation is
// removed first and returned.
func (q *Queue) Enqueue(op *domain.QueuedOperation) (evicted *domain.QueuedOperation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		evicted = q.items[0]
		q.items[0] = nil
		q.items = q.items[1:]
	}
	q.items = append(q.items, op)
	return evicted
}

// PushFront puts op back at the head, ahead of everything queued.
// When the queue is full op is itself the oldest entry, so it is
// returned as evicted and not inserted.
func (q *Queue) PushFront(op *domain.QueuedOperation) (evicted *domain.QueuedOperation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.capacity {
		return op
	}
	q.items = append(q.items, nil)
	copy(q.items[1:], q.items)
	q.items[0] = op
	return nil
}

// PopFront removes and returns the oldest operation.
func (q *Queue) PopFront() (*domain.QueuedOperation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	op := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return op, true
}

// Len returns the number of queued operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the capacity.
func (q *Queue) Cap() int {
	return q.capacity
}

// Snapshot returns a copy of the queued operations, oldest first.
func (q *Queue) Snapshot() []*domain.QueuedOperation {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*domain.QueuedOperation(nil), q.items...)
}

// Clear removes every operation and returns them.
func (q *Queue) Clear() []*domain.QueuedOperation {
	q.mu.Lock()
	defer q.mu.Unlock()
	removed := q.items
	q.items = make([]*domain.QueuedOperation, 0, q.capacity)
	return removed
}
