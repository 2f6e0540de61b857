package queue

import (
	"sync"

	"github.com/jzx17/goparallel/pkg/types"
)

// ring is a fixed-capacity circular buffer; callers check bounds
type ring[T any] struct {
	data         []T
	offset, size int
}

func (r *ring[T]) full() bool {
	return r.size == len(r.data)
}

// write to end
func (r *ring[T]) write(v T) {
	pos := (r.offset + r.size) % len(r.data)
	r.data[pos] = v
	r.size++
}

// read from start
func (r *ring[T]) read() T {
	var zero T
	v := r.data[r.offset]
	r.data[r.offset] = zero // let GC do its work
	r.offset = (r.offset + 1) % len(r.data)
	r.size--
	return v
}

type locked[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      ring[T]
	closed   bool
}

func newLocked[T any](capacity int) *locked[T] {
	q := &locked[T]{buf: ring[T]{data: make([]T, capacity)}}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

func (q *locked[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.buf.full() && !q.closed {
		q.notFull.Wait()
	}
	if q.closed {
		return types.ErrClosedQueue
	}
	q.buf.write(v)
	q.notEmpty.Signal()
	return nil
}

func (q *locked[T]) TryPush(v T) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, types.ErrClosedQueue
	}
	if q.buf.full() {
		return false, nil
	}
	q.buf.write(v)
	q.notEmpty.Signal()
	return true, nil
}

func (q *locked[T]) Pop() types.Item[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.buf.size == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if q.buf.size == 0 {
		return types.End[T]()
	}
	v := q.buf.read()
	q.notFull.Signal()
	return types.Value(v)
}

func (q *locked[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.ErrClosedQueue
	}
	q.closed = true
	// wake every waiter: consumers see End, blocked producers fail
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	return nil
}

func (q *locked[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.buf.size
}

func (q *locked[T]) Cap() int {
	return len(q.buf.data)
}
