package catalyst

import (
	"container/list"
	"sync"
)

// Queue is a goroutine-safe FIFO of pending events. Retried batches go back
// to the front so they are delivered before anything appended meanwhile.
type Queue struct {
	mu   sync.Mutex
	list *list.List
}

// NewQueue creates and returns a new empty Queue.
func NewQueue() *Queue {
	return &Queue{list: list.New()}
}

// Enqueue adds an Event to the end of the queue and returns the new length.
func (q *Queue) Enqueue(event Event) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list.PushBack(event)
	return q.list.Len()
}

// DequeueBatch removes and returns up to max Events from the front.
func (q *Queue) DequeueBatch(max int) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.list.Len()
	if max < n {
		n = max
	}
	if n <= 0 {
		return nil
	}

	batch := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		front := q.list.Front()
		q.list.Remove(front)
		batch = append(batch, front.Value.(Event))
	}
	return batch
}

// PushFront reinserts events at the head, keeping their relative order.
func (q *Queue) PushFront(events []Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(events) - 1; i >= 0; i-- {
		q.list.PushFront(events[i])
	}
}

// IsEmpty reports whether the queue has no elements.
func (q *Queue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.list.Len() == 0
}

// Len returns the number of Events currently in the queue.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.list.Len()
}

// Clear removes all Events and returns how many were dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.list.Len()
	q.list.Init()
	return n
}

// ToSlice returns all Events in the queue as a slice, preserving order.
func (q *Queue) ToSlice() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := make([]Event, 0, q.list.Len())
	for e := q.list.Front(); e != nil; e = e.Next() {
		events = append(events, e.Value.(Event))
	}
	return events
}

// Drain empties the queue and returns everything it held, in order.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := make([]Event, 0, q.list.Len())
	for e := q.list.Front(); e != nil; e = e.Next() {
		events = append(events, e.Value.(Event))
	}
	q.list.Init()
	return events
}
