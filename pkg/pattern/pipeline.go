package pattern

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jzx17/goparallel/pkg/execution"
	"github.com/jzx17/goparallel/pkg/order"
	"github.com/jzx17/goparallel/pkg/queue"
	"github.com/jzx17/goparallel/pkg/types"
	"github.com/jzx17/goparallel/pkg/worker"
)

// stageFunc is a stage callback with its types erased. keep == false turns the
// item into a placeholder.
type stageFunc func(ctx context.Context, v any) (out any, keep bool, err error)

// Stage is one step of a Pipeline. Build stages with Serial, FarmStage,
// FilterStage and IterationStage; adjacent stages must agree on types.
type Stage struct {
	name    string
	workers int // 0 means the context's worker count
	role    role
	fn      stageFunc
}

// Name returns the stage name
func (s Stage) Name() string {
	return s.name
}

// WithWorkers returns a copy of the stage that runs on n workers
func (s Stage) WithWorkers(n int) Stage {
	s.workers = n
	return s
}

func (s Stage) size(ex *execution.Context) int {
	if s.workers > 0 {
		return s.workers
	}
	return ex.Workers()
}

// apply runs the stage on one value, reporting whether a value comes out
func (s Stage) apply(ctx context.Context, r *run, seq uint64, v any) (any, bool) {
	type result struct {
		val  any
		keep bool
	}
	res, ok := call(ctx, r, site{pattern: "pipeline:" + s.name, role: s.role}, seq, func() (result, error) {
		out, keep, err := s.fn(ctx, v)
		return result{val: out, keep: keep}, err
	})
	return res.val, ok && res.keep
}

// assertType recovers a typed value from a stage queue
func assertType[T any](v any) (T, error) {
	if t, ok := v.(T); ok {
		return t, nil
	}
	var zero T
	if v == nil {
		return zero, nil
	}
	return zero, fmt.Errorf("expected %v, got %T: %w", reflect.TypeFor[T](), v, types.ErrInvalidInput)
}

func eraseTransform[T, U any](fn types.ProcessFunc[T, U]) stageFunc {
	return func(ctx context.Context, v any) (any, bool, error) {
		in, err := assertType[T](v)
		if err != nil {
			return nil, false, err
		}
		out, err := fn(ctx, in)
		return out, err == nil, err
	}
}

// Serial is a stage running fn on a single worker
func Serial[T, U any](name string, fn types.ProcessFunc[T, U]) Stage {
	return Stage{name: name, workers: 1, role: roleTransform, fn: eraseTransform(fn)}
}

// FarmStage is a stage running fn on the context's worker count
func FarmStage[T, U any](name string, fn types.ProcessFunc[T, U]) Stage {
	return Stage{name: name, role: roleTransform, fn: eraseTransform(fn)}
}

// FilterStage is a stage forwarding only the values accepted by pred
func FilterStage[T any](name string, pred types.Predicate[T]) Stage {
	return Stage{name: name, role: rolePredicate, fn: func(ctx context.Context, v any) (any, bool, error) {
		in, err := assertType[T](v)
		if err != nil {
			return nil, false, err
		}
		keep, err := pred(ctx, in)
		return in, keep && err == nil, err
	}}
}

// IterationStage is a stage that applies transform to each value until the
// result satisfies until. See Iterate.
func IterationStage[T any](name string, transform types.ProcessFunc[T, T], until types.Predicate[T],
	opts ...IterateOption) Stage {
	cfg := newIterateConfig(opts)
	return Stage{name: name, role: roleTransform, fn: func(ctx context.Context, v any) (any, bool, error) {
		in, err := assertType[T](v)
		if err != nil {
			return nil, false, err
		}
		out, err := iterate(ctx, in, transform, until, cfg)
		return out, err == nil, err
	}}
}

// Pipeline streams the items of gen through stages and passes the results to
// sink. Each stage runs on its own workers and is connected to the next by a
// bounded queue. With ordering enabled the sink sees results in generator order.
//
// An item whose stage fails or is filtered out is skipped by every later stage;
// failures are returned joined once the pipeline has drained.
func Pipeline[T, R any](ctx context.Context, ex *execution.Context, gen types.Generator[T], sink types.Sink[R],
	stages ...Stage) error {
	if ex == nil || gen == nil || sink == nil {
		return fmt.Errorf("pipeline: context, generator and sink are required: %w", types.ErrInvalidInput)
	}
	for i, s := range stages {
		if s.fn == nil {
			return fmt.Errorf("pipeline: stage %d is not initialized: %w", i, types.ErrInvalidInput)
		}
	}

	r, ctx := newRun(ctx, ex, "pipeline", ex.Workers())
	anySink := func(ctx context.Context, v any) error {
		out, err := assertType[R](v)
		if err != nil {
			return err
		}
		return sink(ctx, out)
	}

	if ex.Sequential() {
		generate(ctx, r, gen, func(seq uint64, v T) {
			var cur any = v
			for _, s := range stages {
				var keep bool
				if cur, keep = s.apply(ctx, r, seq, cur); !keep {
					return
				}
			}
			call(ctx, r, r.site(roleSink), seq, func() (struct{}, error) {
				return struct{}{}, anySink(ctx, cur)
			})
		})
		return r.finish(ctx)
	}

	if err := pipelineParallel(ctx, r, gen, anySink, stages); err != nil {
		return r.abandon(err)
	}
	return r.finish(ctx)
}

func pipelineParallel[T any](ctx context.Context, r *run, gen types.Generator[T], sink types.Sink[any],
	stages []Stage) error {
	ex := r.ex

	queues := make([]queue.Queue[envelope[any]], len(stages)+1)
	for i := range queues {
		q, err := newQueue[any](ex)
		if err != nil {
			return err
		}
		queues[i] = q
	}
	abort := func(groups []*worker.Group) {
		for _, q := range queues {
			q.Close()
		}
		join(r, groups...)
	}

	groups := make([]*worker.Group, 0, len(stages)+1)
	for i, s := range stages {
		step := func(ctx context.Context, in envelope[any]) (envelope[any], bool) {
			if !in.present {
				return in, true
			}
			out, keep := s.apply(ctx, r, in.seq, in.val)
			return envelope[any]{seq: in.seq, val: out, present: keep}, true
		}
		g, err := startStage(ctx, r, s.name, s.size(ex), queues[i], queues[i+1], step)
		if err != nil {
			abort(groups)
			return err
		}
		groups = append(groups, g)
	}

	var rc *order.Reconstructor[any]
	if ex.Ordered() {
		rc = order.New[any](r.reorderOptions(ctx)...)
	}
	sinkGroup, err := startSink(ctx, r, queues[len(stages)], sink, rc)
	if err != nil {
		abort(groups)
		return err
	}
	groups = append(groups, sinkGroup)

	var anyGen types.Generator[any] = func(ctx context.Context) types.Item[any] {
		v, ok := gen(ctx).Get()
		if !ok {
			return types.End[any]()
		}
		return types.Value[any](v)
	}
	n := drive(ctx, r, anyGen, queues[0], gateOf(rc))
	join(r, groups...)
	r.logger.Debug().Uint64("items", n).Int("stages", len(stages)).Msg("pipeline drained")
	return nil
}
