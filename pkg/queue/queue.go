// Package queue provides bounded FIFO queues shared between pattern stages.
//
// A queue blocks producers while it is full and consumers while it is
// empty. Termination is signalled by Close: once a queue is closed and
// drained, every consumer observes the end-of-stream item from Pop, any
// number of times, so no sentinel value has to be duplicated per consumer.
package queue

import (
	"github.com/jzx17/goparallel/pkg/types"
)

// Queue is a bounded multi-producer multi-consumer FIFO
type Queue[T any] interface {
	// Push appends v, blocking while the queue is full. It returns
	// types.ErrClosedQueue if the queue is or becomes closed.
	Push(v T) error

	// TryPush appends v if there is room and reports whether it did
	TryPush(v T) (bool, error)

	// Pop removes the oldest value, blocking while the queue is empty.
	// It returns the end item once the queue is closed and drained.
	Pop() types.Item[T]

	// Close marks the end of the stream. Values already queued are still
	// delivered. Closing twice returns types.ErrClosedQueue.
	Close() error

	// Len returns the number of queued values
	Len() int

	// Cap returns the capacity
	Cap() int
}

// New creates a queue holding at most capacity values. With lockfree set
// the queue is a lock-free ring buffer; otherwise it is guarded by a mutex.
func New[T any](capacity int, lockfree bool) (Queue[T], error) {
	if capacity <= 0 {
		return nil, types.NewConfigurationError("queue_capacity", capacity, "must be positive")
	}
	if lockfree {
		return newLockFree[T](capacity), nil
	}
	return newLocked[T](capacity), nil
}
