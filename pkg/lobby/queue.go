package lobby

import (
	"container/list"
	"sync"
)

// Queue is a mutex guarded FIFO. Producers never block and the consumer
// polls with TryPop.
type Queue[T any] struct {
	mu    sync.Mutex
	items *list.List
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		items: list.New(),
	}
}

// Push adds an item to the rear of the queue
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items.PushBack(item)
	q.mu.Unlock()
}

// TryPop removes and returns the front item, if any
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	front := q.items.Front()
	if front == nil {
		return zero, false
	}
	q.items.Remove(front)
	return front.Value.(T), true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Clear removes all items from the queue
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	q.items.Init()
	q.mu.Unlock()
}
