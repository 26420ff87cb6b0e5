package catalyst

import "context"

// Mutex serializes dispatch cycles. Unlike sync.Mutex, a waiter can give up
// when its context ends, so Flush never blocks past its deadline behind a
// cycle that is stuck in a slow request.
type Mutex struct {
	ch chan struct{}
}

// NewMutex creates a new mutex
func NewMutex() *Mutex {
	return &Mutex{ch: make(chan struct{}, 1)}
}

// RunAtomic executes task with exclusive access, or returns ctx.Err() if the
// lock could not be acquired before ctx ended.
func (m *Mutex) RunAtomic(ctx context.Context, task func() error) error {
	select {
	case m.ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-m.ch }()
	return task()
}

// Held reports whether a task is currently running.
func (m *Mutex) Held() bool {
	return len(m.ch) == 1
}
