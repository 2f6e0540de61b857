package pattern

import (
	"context"
	"fmt"

	"github.com/jzx17/goparallel/pkg/execution"
	"github.com/jzx17/goparallel/pkg/types"
)

// MapReduce partitions in like Map. Each chunk folds its elements from
// identity with acc = combine(transform(x), acc). The partial results are then
// combined on the calling goroutine in chunk order, starting from the first
// partial: acc = combine(partial[i], acc) for i = 1, 2, ...
//
// combine need not be associative or commutative: the result depends only on
// the input and the worker count, never on which chunk finished first. The
// sequential backend uses the same partition and yields the same result.
// Elements whose transform fails are left out of the fold.
func MapReduce[T, U any](ctx context.Context, ex *execution.Context, in []T, identity U,
	transform types.ProcessFunc[T, U], combine types.Combiner[U]) (U, error) {
	if ex == nil || transform == nil || combine == nil {
		return identity, fmt.Errorf("map reduce: context, transform and combine are required: %w", types.ErrInvalidInput)
	}

	r, ctx := newRun(ctx, ex, "mapreduce", ex.Workers())
	spans := split(len(in), ex.Workers())
	if len(spans) == 0 {
		return identity, r.finish(ctx)
	}

	partial := make([]U, len(spans))
	forChunks(ctx, r, spans, func(ctx context.Context, c int, sp span) {
		acc := identity
		for i := sp.lo; i < sp.hi; i++ {
			u, ok := call(ctx, r, r.site(roleTransform), uint64(i), func() (U, error) {
				return transform(ctx, in[i])
			})
			if !ok {
				continue
			}
			if next, ok := call(ctx, r, r.site(roleCombine), uint64(i), func() (U, error) {
				return combine(u, acc)
			}); ok {
				acc = next
			}
		}
		partial[c] = acc
	})

	acc := partial[0]
	for c := 1; c < len(partial); c++ {
		if next, ok := call(ctx, r, r.site(roleCombine), uint64(c), func() (U, error) {
			return combine(partial[c], acc)
		}); ok {
			acc = next
		}
	}
	return acc, r.finish(ctx)
}
