package queue

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jzx17/goparallel/pkg/types"
)

// cell is one ring slot. seq == pos means the slot is free for the
// producer claiming pos; seq == pos+1 means it holds the value for the
// consumer claiming pos.
type cell[T any] struct {
	seq atomic.Uint64
	val T
}

// lockFree is a bounded MPMC ring buffer with per-slot sequence numbers
type lockFree[T any] struct {
	_      [64]byte
	enq    atomic.Uint64
	_      [56]byte
	deq    atomic.Uint64
	_      [56]byte
	closed atomic.Bool

	// producers between their closed check and the end of their enqueue
	pushing atomic.Int64

	cells []cell[T]
	size  uint64
}

func newLockFree[T any](capacity int) *lockFree[T] {
	q := &lockFree[T]{
		cells: make([]cell[T], capacity),
		size:  uint64(capacity),
	}
	for i := range q.cells {
		q.cells[i].seq.Store(uint64(i))
	}
	return q
}

func (q *lockFree[T]) tryEnqueue(v T) bool {
	pos := q.enq.Load()
	for {
		c := &q.cells[pos%q.size]
		seq := c.seq.Load()
		switch dif := int64(seq - pos); {
		case dif == 0:
			if q.enq.CompareAndSwap(pos, pos+1) {
				c.val = v
				c.seq.Store(pos + 1)
				return true
			}
			pos = q.enq.Load()
		case dif < 0:
			return false
		default:
			pos = q.enq.Load()
		}
	}
}

func (q *lockFree[T]) tryDequeue() (T, bool) {
	var zero T
	pos := q.deq.Load()
	for {
		c := &q.cells[pos%q.size]
		seq := c.seq.Load()
		switch dif := int64(seq - (pos + 1)); {
		case dif == 0:
			if q.deq.CompareAndSwap(pos, pos+1) {
				v := c.val
				c.val = zero
				c.seq.Store(pos + q.size)
				return v, true
			}
			pos = q.deq.Load()
		case dif < 0:
			return zero, false
		default:
			pos = q.deq.Load()
		}
	}
}

// Push and TryPush register in pushing before checking closed. Pop reports End
// only once closed is set and no registered producer remains, so a push that
// returns nil is never lost to a concurrent Close.
func (q *lockFree[T]) Push(v T) error {
	q.pushing.Add(1)
	defer q.pushing.Add(-1)

	var b backoff
	for {
		if q.closed.Load() {
			return types.ErrClosedQueue
		}
		if q.tryEnqueue(v) {
			return nil
		}
		b.wait()
	}
}

func (q *lockFree[T]) TryPush(v T) (bool, error) {
	q.pushing.Add(1)
	defer q.pushing.Add(-1)

	if q.closed.Load() {
		return false, types.ErrClosedQueue
	}
	return q.tryEnqueue(v), nil
}

func (q *lockFree[T]) Pop() types.Item[T] {
	var b backoff
	for {
		if v, ok := q.tryDequeue(); ok {
			return types.Value(v)
		}
		if q.closed.Load() && q.pushing.Load() == 0 {
			// values pushed before Close must still be delivered
			if v, ok := q.tryDequeue(); ok {
				return types.Value(v)
			}
			return types.End[T]()
		}
		b.wait()
	}
}

func (q *lockFree[T]) Close() error {
	if !q.closed.CompareAndSwap(false, true) {
		return types.ErrClosedQueue
	}
	return nil
}

func (q *lockFree[T]) Len() int {
	deq := q.deq.Load()
	enq := q.enq.Load()
	if enq <= deq {
		return 0
	}
	if n := enq - deq; n < q.size {
		return int(n)
	}
	return int(q.size)
}

func (q *lockFree[T]) Cap() int {
	return int(q.size)
}

const (
	spinLimit = 64
	maxSleep  = time.Millisecond
)

// backoff yields first and then sleeps with doubling delays
type backoff struct {
	spins int
	sleep time.Duration
}

func (b *backoff) wait() {
	if b.spins < spinLimit {
		b.spins++
		runtime.Gosched()
		return
	}
	if b.sleep == 0 {
		b.sleep = 10 * time.Microsecond
	}
	time.Sleep(b.sleep)
	if b.sleep < maxSleep {
		b.sleep *= 2
	}
}
