package pattern

import (
	"context"
	"fmt"

	"github.com/jzx17/goparallel/pkg/execution"
	"github.com/jzx17/goparallel/pkg/order"
	"github.com/jzx17/goparallel/pkg/types"
)

// MinFilterWorkers is the smallest worker count StreamFilter accepts under the
// parallel backend: the driver, one filter worker and the terminal worker.
const MinFilterWorkers = 3

// StreamFilter passes to sink the items of gen accepted by pred. The driver
// runs on the calling goroutine, ex.Workers()-2 workers evaluate pred and one
// terminal worker calls sink, in generator order when ordering is enabled.
//
// Rejected items and items whose predicate fails keep their sequence slot, so
// the terminal worker never waits for them.
func StreamFilter[T any](ctx context.Context, ex *execution.Context, gen types.Generator[T],
	pred types.Predicate[T], sink types.Sink[T]) error {
	if ex == nil || gen == nil || pred == nil || sink == nil {
		return fmt.Errorf("stream filter: context, generator, predicate and sink are required: %w", types.ErrInvalidInput)
	}

	if ex.Sequential() {
		r, ctx := newRun(ctx, ex, "filter", 1)
		generate(ctx, r, gen, func(seq uint64, v T) {
			keep, _ := call(ctx, r, r.site(rolePredicate), seq, func() (bool, error) {
				return pred(ctx, v)
			})
			if keep {
				call(ctx, r, r.site(roleSink), seq, func() (struct{}, error) {
					return struct{}{}, sink(ctx, v)
				})
			}
		})
		return r.finish(ctx)
	}

	if ex.Workers() < MinFilterWorkers {
		return types.NewConfigurationError("workers", ex.Workers(),
			fmt.Sprintf("stream filter needs at least %d workers", MinFilterWorkers))
	}

	filters := ex.Workers() - 2
	r, ctx := newRun(ctx, ex, "filter", filters)

	in, err := newQueue[T](ex)
	if err != nil {
		return r.abandon(err)
	}
	out, err := newQueue[T](ex)
	if err != nil {
		return r.abandon(err)
	}

	var rc *order.Reconstructor[T]
	if ex.Ordered() {
		rc = order.New[T](r.reorderOptions(ctx)...)
	}

	stage, err := startStage(ctx, r, "filter", filters, in, out, filterStep(r, r.site(rolePredicate), pred))
	if err != nil {
		return r.abandon(err)
	}
	terminal, err := startSink(ctx, r, out, sink, rc)
	if err != nil {
		in.Close()
		out.Close()
		join(r, stage)
		return r.abandon(err)
	}

	n := drive(ctx, r, gen, in, gateOf(rc))
	join(r, stage, terminal)
	r.logger.Debug().Uint64("items", n).Int("filter_workers", filters).Msg("filter drained")
	return r.finish(ctx)
}
