package pattern

import (
	"context"
	"fmt"

	"github.com/jzx17/goparallel/pkg/execution"
	"github.com/jzx17/goparallel/pkg/order"
	"github.com/jzx17/goparallel/pkg/queue"
	"github.com/jzx17/goparallel/pkg/types"
	"github.com/jzx17/goparallel/pkg/worker"
)

// Farm applies transform to every item of gen on ex.Workers() workers and
// passes each result to sink. The generator runs on the calling goroutine and
// the sink on a single dedicated worker.
//
// With ordering enabled the sink sees results in generator order; otherwise in
// completion order. A nil sink runs transform for its side effects only.
//
// A failing transform or sink does not stop the stream: the item is skipped and
// the error is returned, joined with any others, once the farm has drained.
func Farm[T, U any](ctx context.Context, ex *execution.Context, gen types.Generator[T],
	transform types.ProcessFunc[T, U], sink types.Sink[U]) error {
	if ex == nil || gen == nil || transform == nil {
		return fmt.Errorf("farm: context, generator and transform are required: %w", types.ErrInvalidInput)
	}

	r, ctx := newRun(ctx, ex, "farm", ex.Workers())
	if ex.Sequential() {
		farmSequential(ctx, r, gen, transform, sink)
		return r.finish(ctx)
	}

	if err := farmParallel(ctx, r, gen, transform, sink); err != nil {
		return r.abandon(err)
	}
	return r.finish(ctx)
}

func farmSequential[T, U any](ctx context.Context, r *run, gen types.Generator[T],
	transform types.ProcessFunc[T, U], sink types.Sink[U]) {
	generate(ctx, r, gen, func(seq uint64, v T) {
		u, ok := call(ctx, r, r.site(roleTransform), seq, func() (U, error) {
			return transform(ctx, v)
		})
		if !ok || sink == nil {
			return
		}
		call(ctx, r, r.site(roleSink), seq, func() (struct{}, error) {
			return struct{}{}, sink(ctx, u)
		})
	})
}

func farmParallel[T, U any](ctx context.Context, r *run, gen types.Generator[T],
	transform types.ProcessFunc[T, U], sink types.Sink[U]) error {
	ex := r.ex

	in, err := newQueue[T](ex)
	if err != nil {
		return err
	}

	var out queue.Queue[envelope[U]]
	var rc *order.Reconstructor[U]
	if sink != nil {
		if out, err = newQueue[U](ex); err != nil {
			return err
		}
		if ex.Ordered() {
			rc = order.New[U](r.reorderOptions(ctx)...)
		}
	}

	farm, err := startStage(ctx, r, "farm", ex.Workers(), in, out, transformStep(r, r.site(roleTransform), transform))
	if err != nil {
		return err
	}

	var sinkGroup *worker.Group
	if sink != nil {
		if sinkGroup, err = startSink(ctx, r, out, sink, rc); err != nil {
			in.Close()
			out.Close()
			join(r, farm)
			return err
		}
	}

	n := drive(ctx, r, gen, in, gateOf(rc))
	join(r, farm, sinkGroup)
	r.logger.Debug().Uint64("items", n).Msg("farm drained")
	return nil
}
