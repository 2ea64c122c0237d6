package world

import "sync"

// taskQueue is a FIFO guarded by its own mutex. With a key function it
// refuses a task whose key is already pending.
type taskQueue[K comparable, T any] struct {
	mu      sync.Mutex
	items   []T
	key     func(T) K
	pending map[K]struct{}
}

func newTaskQueue[K comparable, T any](key func(T) K) *taskQueue[K, T] {
	q := &taskQueue[K, T]{key: key}
	if key != nil {
		q.pending = make(map[K]struct{})
	}
	return q
}

// Push appends t and reports whether it was accepted.
func (q *taskQueue[K, T]) Push(t T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.key != nil {
		k := q.key(t)
		if _, dup := q.pending[k]; dup {
			return false
		}
		q.pending[k] = struct{}{}
	}
	q.items = append(q.items, t)
	return true
}

// Pop removes the oldest task. It never blocks.
func (q *taskQueue[K, T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	t := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if q.key != nil {
		delete(q.pending, q.key(t))
	}
	return t, true
}

// Remove withdraws the pending task with key k.
func (q *taskQueue[K, T]) Remove(k K) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.key == nil {
		return false
	}
	if _, ok := q.pending[k]; !ok {
		return false
	}
	for i, t := range q.items {
		if q.key(t) == k {
			q.items = append(q.items[:i], q.items[i+1:]...)
			delete(q.pending, k)
			return true
		}
	}
	return false
}

func (q *taskQueue[K, T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
