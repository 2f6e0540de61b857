package pattern

import (
	"context"
	"fmt"

	"github.com/jzx17/goparallel/pkg/execution"
	"github.com/jzx17/goparallel/pkg/types"
	"github.com/jzx17/goparallel/pkg/worker"
)

// DivideAndConquer splits problem with divide. A problem that divides into at
// most one subproblem is passed to solve. Otherwise every subproblem is solved
// recursively, concurrently on the shared pool, and the results are combined in
// subproblem order: acc = partial[0], then acc = combine(partial[i], acc).
//
// Subproblems deeper than the context's MaxDepth are solved on the goroutine that
// divided them. If any subproblem fails its ancestors are not combined and the
// zero result is returned with the joined errors.
func DivideAndConquer[P, R any](ctx context.Context, ex *execution.Context, problem P,
	divide types.Divider[P], solve types.Solver[P, R], combine types.Combiner[R]) (R, error) {
	if ex == nil || divide == nil || solve == nil || combine == nil {
		var zero R
		return zero, fmt.Errorf("divide and conquer: context, divide, solve and combine are required: %w", types.ErrInvalidInput)
	}

	r, ctx := newRun(ctx, ex, "dac", ex.Workers())
	d := &conquer[P, R]{
		r:        r,
		divide:   divide,
		solve:    solve,
		combine:  combine,
		pool:     ex.Pool(),
		maxDepth: ex.MaxDepth(),
	}
	res, _ := d.run(ctx, problem, 0, 0)
	return res, r.finish(ctx)
}

type conquer[P, R any] struct {
	r        *run
	divide   types.Divider[P]
	solve    types.Solver[P, R]
	combine  types.Combiner[R]
	pool     *worker.Pool
	maxDepth int
}

// run solves p, the index-th subproblem of its parent
func (d *conquer[P, R]) run(ctx context.Context, p P, depth int, index uint64) (R, bool) {
	var zero R

	subs, ok := call(ctx, d.r, d.r.site(roleDivide), index, func() ([]P, error) {
		return d.divide(ctx, p)
	})
	if !ok {
		return zero, false
	}
	if len(subs) <= 1 {
		return call(ctx, d.r, d.r.site(roleSolve), index, func() (R, error) {
			return d.solve(ctx, p)
		})
	}

	results := make([]R, len(subs))
	oks := make([]bool, len(subs))
	if d.pool != nil && (d.maxDepth == 0 || depth < d.maxDepth) {
		futures := make([]*worker.Future, len(subs))
		for i := 1; i < len(subs); i++ {
			futures[i] = d.pool.Submit(ctx, func(ctx context.Context) error {
				results[i], oks[i] = d.run(ctx, subs[i], depth+1, uint64(i))
				return nil
			})
		}
		results[0], oks[0] = d.run(ctx, subs[0], depth+1, 0)
		for _, f := range futures[1:] {
			d.r.record(f.Wait())
		}
	} else {
		for i, sub := range subs {
			results[i], oks[i] = d.run(ctx, sub, depth+1, uint64(i))
		}
	}

	for _, ok := range oks {
		if !ok {
			return zero, false
		}
	}

	acc := results[0]
	for i := 1; i < len(results); i++ {
		next, ok := call(ctx, d.r, d.r.site(roleCombine), uint64(i), func() (R, error) {
			return d.combine(results[i], acc)
		})
		if !ok {
			return zero, false
		}
		acc = next
	}
	return acc, true
}
