package pattern

import (
	"context"
	"fmt"

	"github.com/jzx17/goparallel/pkg/execution"
	"github.com/jzx17/goparallel/pkg/types"
	"github.com/jzx17/goparallel/pkg/worker"
)

// Func2 transforms a pair of inputs taken from two zipped sequences
type Func2[A, B, U any] func(ctx context.Context, a A, b B) (U, error)

// ZipFunc transforms the i-th element of every zipped sequence
type ZipFunc[T, U any] func(ctx context.Context, row []T) (U, error)

// span is the half-open index range [lo, hi) of one chunk
type span struct {
	lo, hi int
}

// split divides [0, n) into min(w, n) contiguous chunks of n/w elements;
// the last chunk absorbs the remainder.
func split(n, w int) []span {
	if n <= 0 {
		return nil
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}

	size := n / w
	spans := make([]span, w)
	for i := range spans {
		spans[i] = span{lo: i * size, hi: (i + 1) * size}
	}
	spans[w-1].hi = n
	return spans
}

// forChunks runs body once per chunk. Chunk 0 runs on the calling goroutine,
// the others on the shared pool. The sequential backend runs every chunk in
// index order on the calling goroutine.
func forChunks(ctx context.Context, r *run, spans []span, body func(ctx context.Context, c int, sp span)) {
	pool := r.ex.Pool()
	if pool == nil || len(spans) <= 1 {
		for c, sp := range spans {
			body(ctx, c, sp)
		}
		return
	}

	futures := make([]*worker.Future, len(spans))
	for c := 1; c < len(spans); c++ {
		sp := spans[c]
		futures[c] = pool.Submit(ctx, func(ctx context.Context) error {
			body(ctx, c, sp)
			return nil
		})
	}
	body(ctx, 0, spans[0])

	for _, f := range futures[1:] {
		r.record(f.Wait())
	}
}

// Map applies fn to every element of in. out[i] is fn(in[i]) for every worker
// count and backend. Elements whose fn fails are left at the zero value and the
// failures are returned joined.
func Map[T, U any](ctx context.Context, ex *execution.Context, in []T, fn types.ProcessFunc[T, U]) ([]U, error) {
	if ex == nil || fn == nil {
		return nil, fmt.Errorf("map: context and transform are required: %w", types.ErrInvalidInput)
	}

	r, ctx := newRun(ctx, ex, "map", ex.Workers())
	out := make([]U, len(in))
	forChunks(ctx, r, split(len(in), ex.Workers()), func(ctx context.Context, _ int, sp span) {
		for i := sp.lo; i < sp.hi; i++ {
			out[i], _ = call(ctx, r, r.site(roleTransform), uint64(i), func() (U, error) {
				return fn(ctx, in[i])
			})
		}
	})
	return out, r.finish(ctx)
}

// Map2 applies fn to the pairs (a[i], b[i]). Both sequences must have the same length.
func Map2[A, B, U any](ctx context.Context, ex *execution.Context, a []A, b []B, fn Func2[A, B, U]) ([]U, error) {
	if ex == nil || fn == nil {
		return nil, fmt.Errorf("map: context and transform are required: %w", types.ErrInvalidInput)
	}
	if len(a) != len(b) {
		return nil, fmt.Errorf("map: zipped inputs have lengths %d and %d: %w", len(a), len(b), types.ErrInvalidInput)
	}

	r, ctx := newRun(ctx, ex, "map", ex.Workers())
	out := make([]U, len(a))
	forChunks(ctx, r, split(len(a), ex.Workers()), func(ctx context.Context, _ int, sp span) {
		for i := sp.lo; i < sp.hi; i++ {
			out[i], _ = call(ctx, r, r.site(roleTransform), uint64(i), func() (U, error) {
				return fn(ctx, a[i], b[i])
			})
		}
	})
	return out, r.finish(ctx)
}

// MapZip applies fn to the i-th element of every input, advanced in lockstep.
// Every input must have the same length.
func MapZip[T, U any](ctx context.Context, ex *execution.Context, fn ZipFunc[T, U], inputs ...[]T) ([]U, error) {
	if ex == nil || fn == nil || len(inputs) == 0 {
		return nil, fmt.Errorf("map: context, transform and at least one input are required: %w", types.ErrInvalidInput)
	}
	n := len(inputs[0])
	for k, in := range inputs[1:] {
		if len(in) != n {
			return nil, fmt.Errorf("map: input %d has length %d, want %d: %w", k+1, len(in), n, types.ErrInvalidInput)
		}
	}

	r, ctx := newRun(ctx, ex, "map", ex.Workers())
	out := make([]U, n)
	forChunks(ctx, r, split(n, ex.Workers()), func(ctx context.Context, _ int, sp span) {
		for i := sp.lo; i < sp.hi; i++ {
			row := make([]T, len(inputs))
			for k, in := range inputs {
				row[k] = in[i]
			}
			out[i], _ = call(ctx, r, r.site(roleTransform), uint64(i), func() (U, error) {
				return fn(ctx, row)
			})
		}
	})
	return out, r.finish(ctx)
}
