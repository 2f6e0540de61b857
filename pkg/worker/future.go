package worker

import (
	"context"
	"fmt"
	"sync/atomic"
)

// futureIDCounter is the global future ID counter
var futureIDCounter int64

const (
	futurePending int32 = iota
	futureRunning
	futureDone
)

// Future is a task submitted to a Pool. Whoever claims it first runs it:
// a pool worker, or the goroutine calling Wait if no worker got to it yet.
type Future struct {
	id    string
	ctx   context.Context
	fn    func(ctx context.Context) error
	state atomic.Int32
	done  chan struct{}
	err   error
}

func newFuture(ctx context.Context, fn func(ctx context.Context) error) *Future {
	id := atomic.AddInt64(&futureIDCounter, 1)
	return &Future{
		id:   fmt.Sprintf("task-%d", id),
		ctx:  ctx,
		fn:   fn,
		done: make(chan struct{}),
	}
}

// ID returns the future ID
func (f *Future) ID() string {
	return f.id
}

func (f *Future) claim() bool {
	return f.state.CompareAndSwap(futurePending, futureRunning)
}

func (f *Future) finish(err error) {
	f.err = err
	f.state.Store(futureDone)
	close(f.done)
}

// execute runs the claimed task on the worker bound to ctx, if any
func (f *Future) execute(ctx context.Context) {
	f.finish(Do(ctx, f.fn))
}

// Wait blocks until the task has run and returns its error. A task still
// pending is run inline on the caller.
func (f *Future) Wait() error {
	if f.claim() {
		f.execute(f.ctx)
	}
	<-f.done
	return f.err
}

// Done returns a channel closed once the task has run
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Pending reports whether no goroutine has claimed the task yet
func (f *Future) Pending() bool {
	return f.state.Load() == futurePending
}
