// Package order restores stream order after items were processed out of order.
package order

import (
	"fmt"
	"sync"

	"github.com/jzx17/goparallel/pkg/types"
)

// Emit receives released items in sequence order
type Emit[T any] func(seq uint64, v T)

// Option configures a Reconstructor
type Option func(*options)

type options struct {
	maxSkew   uint64
	onStall   func(seq, next uint64)
	onPending func(delta int64)
}

// WithMaxSkew bounds how far ahead of the cursor a sequence may be. Zero means unbounded.
func WithMaxSkew(n uint64) Option {
	return func(o *options) {
		o.maxSkew = n
	}
}

// WithStallObserver is called each time Admit has to wait for the cursor
func WithStallObserver(fn func(seq, next uint64)) Option {
	return func(o *options) {
		o.onStall = fn
	}
}

// WithPendingObserver is called with the change in buffered items
func WithPendingObserver(fn func(delta int64)) Option {
	return func(o *options) {
		o.onPending = fn
	}
}

// Reconstructor buffers items that arrive ahead of their turn and releases the
// contiguous run starting at the cursor. Submit may be called from any goroutine;
// Drain and Flush from a single consumer.
type Reconstructor[T any] struct {
	opts options

	mu       sync.Mutex
	advanced *sync.Cond
	next     uint64
	pending  seqHeap[T]
	buffered map[uint64]struct{}
	stalls   int64
	closed   bool

	// reused between drains, owned by the consumer
	ready []entry[T]
}

// New creates a reconstructor whose cursor starts at sequence 0
func New[T any](opts ...Option) *Reconstructor[T] {
	r := &Reconstructor[T]{
		buffered: make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(&r.opts)
	}
	r.advanced = sync.NewCond(&r.mu)
	return r
}

// Admit blocks while seq lies beyond the skew window. It returns ErrClosedQueue
// if the reconstructor is closed while waiting.
func (r *Reconstructor[T]) Admit(seq uint64) error {
	if r.opts.maxSkew == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for !r.closed && seq >= r.next+r.opts.maxSkew {
		r.stalls++
		if r.opts.onStall != nil {
			r.opts.onStall(seq, r.next)
		}
		r.advanced.Wait()
	}
	if r.closed {
		return types.ErrClosedQueue
	}
	return nil
}

// Submit buffers the item at seq. A placeholder (present == false) takes its
// slot without being emitted.
func (r *Reconstructor[T]) Submit(seq uint64, v T, present bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if seq < r.next {
		return fmt.Errorf("sequence %d already released: %w", seq, types.ErrDuplicateSequence)
	}
	if _, ok := r.buffered[seq]; ok {
		return fmt.Errorf("sequence %d already pending: %w", seq, types.ErrDuplicateSequence)
	}
	if r.opts.maxSkew > 0 && seq >= r.next+r.opts.maxSkew {
		return fmt.Errorf("sequence %d with cursor at %d: %w", seq, r.next, types.ErrSkewExceeded)
	}

	r.pending.Push(entry[T]{seq: seq, val: v, present: present})
	r.buffered[seq] = struct{}{}
	if r.opts.onPending != nil {
		r.opts.onPending(1)
	}
	return nil
}

// Drain emits the contiguous run of items starting at the cursor and returns
// how many slots were released.
func (r *Reconstructor[T]) Drain(emit Emit[T]) int {
	r.mu.Lock()
	r.ready = r.ready[:0]
	for r.pending.Len() > 0 && r.pending.Peek().seq == r.next {
		r.take()
	}
	r.mu.Unlock()

	return r.release(emit)
}

// Flush emits everything still buffered in ascending order, skipping gaps.
// Called once the stream has ended.
func (r *Reconstructor[T]) Flush(emit Emit[T]) int {
	r.mu.Lock()
	r.ready = r.ready[:0]
	for r.pending.Len() > 0 {
		r.next = r.pending.Peek().seq
		r.take()
	}
	r.mu.Unlock()

	return r.release(emit)
}

// take moves the head of the heap to ready and advances the cursor. r.mu must be held.
func (r *Reconstructor[T]) take() {
	e := r.pending.Pop()
	delete(r.buffered, e.seq)
	r.ready = append(r.ready, e)
	r.next++
}

func (r *Reconstructor[T]) release(emit Emit[T]) int {
	n := len(r.ready)
	if n == 0 {
		return 0
	}

	r.advanced.Broadcast()
	if r.opts.onPending != nil {
		r.opts.onPending(-int64(n))
	}
	for _, e := range r.ready {
		if e.present {
			emit(e.seq, e.val)
		}
	}

	var zero T
	for i := range r.ready {
		r.ready[i].val = zero
	}
	return n
}

// Close wakes every goroutine blocked in Admit
func (r *Reconstructor[T]) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.advanced.Broadcast()
}

// Next returns the cursor: the lowest sequence not yet released
func (r *Reconstructor[T]) Next() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// Pending returns the number of buffered items
func (r *Reconstructor[T]) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending.Len()
}

// Stalls returns how many times Admit had to wait
func (r *Reconstructor[T]) Stalls() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stalls
}
