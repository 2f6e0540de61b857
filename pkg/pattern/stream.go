package pattern

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jzx17/goparallel/pkg/execution"
	"github.com/jzx17/goparallel/pkg/order"
	"github.com/jzx17/goparallel/pkg/queue"
	"github.com/jzx17/goparallel/pkg/types"
	"github.com/jzx17/goparallel/pkg/worker"
)

// envelope is a sequenced item: a value travelling through the queues of a
// streaming pattern together with the position of the generator item it came
// from. Closing the queue ends the stream, so an envelope never carries End.
// A placeholder (present == false) keeps the position of an item that was
// filtered out or failed, so order reconstruction never waits for it.
type envelope[T any] struct {
	seq     uint64
	val     T
	present bool
}

func newQueue[T any](ex *execution.Context) (queue.Queue[envelope[T]], error) {
	return queue.New[envelope[T]](ex.QueueCapacity(), ex.LockFree())
}

// stepFunc turns one input envelope into one output envelope. emit == false
// drops the item entirely.
type stepFunc[In, Out any] func(ctx context.Context, in envelope[In]) (out envelope[Out], emit bool)

// startStage runs step on n workers between in and out. The last worker to
// finish closes out, so downstream sees the end of the stream exactly once.
// A nil out consumes the stream without forwarding anything.
func startStage[In, Out any](ctx context.Context, r *run, name string, n int,
	in queue.Queue[envelope[In]], out queue.Queue[envelope[Out]], step stepFunc[In, Out]) (*worker.Group, error) {
	group, err := worker.NewGroup(name, n, worker.WithClock(r.ex.Clock()), worker.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}

	var finished atomic.Int32
	err = group.Init(ctx, func(ctx context.Context) error {
		defer func() {
			if finished.Add(1) == int32(n) && out != nil {
				if err := out.Close(); err != nil {
					r.record(fmt.Errorf("stage %s: closing output: %w", name, err))
				}
			}
		}()

		for {
			env, ok := in.Pop().Get()
			if !ok {
				return nil
			}
			res, emit := step(ctx, env)
			if !emit || out == nil {
				continue
			}
			if err := out.Push(res); err != nil {
				return fmt.Errorf("stage %s: forwarding seq %d: %w", name, env.seq, err)
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// startSink delivers every present value of in to sink from a single worker.
// With rc set, values are released in sequence order.
func startSink[T any](ctx context.Context, r *run, in queue.Queue[envelope[T]], sink types.Sink[T],
	rc *order.Reconstructor[T]) (*worker.Group, error) {
	group, err := worker.NewGroup("sink", 1, worker.WithClock(r.ex.Clock()), worker.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}

	deliver := func(seq uint64, v T) {
		call(ctx, r, r.site(roleSink), seq, func() (struct{}, error) {
			return struct{}{}, sink(ctx, v)
		})
	}

	err = group.Init(ctx, func(ctx context.Context) error {
		if rc == nil {
			for {
				env, ok := in.Pop().Get()
				if !ok {
					return nil
				}
				if env.present {
					deliver(env.seq, env.val)
				}
			}
		}

		// the driver may be parked in Admit; wake it if this loop exits early
		defer rc.Close()
		for {
			env, ok := in.Pop().Get()
			if !ok {
				break
			}
			if err := rc.Submit(env.seq, env.val, env.present); err != nil {
				r.fail(ctx, r.site(roleReorder), env.seq, err)
				continue
			}
			rc.Drain(deliver)
		}
		if n := rc.Flush(deliver); n > 0 {
			r.logger.Warn().Int("released", n).Msg("flushed items after a gap in the sequence")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// admitter gates the driver on the reorder window of an ordered sink
type admitter interface {
	Admit(seq uint64) error
}

// drive pulls from gen on the calling goroutine, tags each value with its
// sequence number and pushes it to out. It closes out at the end of the stream.
// With gate set, each push first waits for the reorder window.
func drive[T any](ctx context.Context, r *run, gen types.Generator[T], out queue.Queue[envelope[T]],
	gate admitter) uint64 {
	defer func() {
		if err := out.Close(); err != nil {
			r.record(fmt.Errorf("closing input queue: %w", err))
		}
	}()

	var seq uint64
	for ; ; seq++ {
		item, ok := call(ctx, r, r.site(roleGenerator), seq, func() (types.Item[T], error) {
			return gen(ctx), nil
		})
		if !ok {
			// a panicking generator cannot be resumed safely
			return seq
		}
		v, ok := item.Get()
		if !ok {
			r.uncount(roleGenerator)
			return seq
		}
		if gate != nil {
			if err := gate.Admit(seq); err != nil {
				r.record(fmt.Errorf("admitting seq %d: %w", seq, err))
				return seq
			}
		}
		if err := out.Push(envelope[T]{seq: seq, val: v, present: true}); err != nil {
			r.record(fmt.Errorf("pushing seq %d: %w", seq, err))
			return seq
		}
	}
}

// join shuts groups down in order and records their loop errors
func join(r *run, groups ...*worker.Group) {
	for _, g := range groups {
		if g == nil {
			continue
		}
		r.record(g.Shutdown())
	}
}

// generate pulls from gen until End on the calling goroutine, for the sequential backend
func generate[T any](ctx context.Context, r *run, gen types.Generator[T], fn func(seq uint64, v T)) {
	for seq := uint64(0); ; seq++ {
		item, ok := call(ctx, r, r.site(roleGenerator), seq, func() (types.Item[T], error) {
			return gen(ctx), nil
		})
		if !ok {
			return
		}
		v, ok := item.Get()
		if !ok {
			r.uncount(roleGenerator)
			return
		}
		fn(seq, v)
	}
}

// gateOf returns rc as an admitter, or nil when the sink is unordered
func gateOf[T any](rc *order.Reconstructor[T]) admitter {
	if rc == nil {
		return nil
	}
	return rc
}

// transformStep applies transform to present values. A failure leaves a placeholder.
func transformStep[T, U any](r *run, s site, transform types.ProcessFunc[T, U]) stepFunc[T, U] {
	return func(ctx context.Context, in envelope[T]) (envelope[U], bool) {
		out := envelope[U]{seq: in.seq}
		if !in.present {
			return out, true
		}
		out.val, out.present = call(ctx, r, s, in.seq, func() (U, error) {
			return transform(ctx, in.val)
		})
		return out, true
	}
}

// filterStep keeps values accepted by pred. Rejected and failed values leave a placeholder.
func filterStep[T any](r *run, s site, pred types.Predicate[T]) stepFunc[T, T] {
	return func(ctx context.Context, in envelope[T]) (envelope[T], bool) {
		if !in.present {
			return in, true
		}
		keep, _ := call(ctx, r, s, in.seq, func() (bool, error) {
			return pred(ctx, in.val)
		})
		if !keep {
			var zero T
			return envelope[T]{seq: in.seq, val: zero}, true
		}
		return in, true
	}
}
