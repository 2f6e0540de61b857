package types

import "context"

// Generator produces the next stream item. It is called sequentially by a
// single driver and returns End once the stream is exhausted.
type Generator[T any] func(ctx context.Context) Item[T]

// ProcessFunc transforms one input into one output
type ProcessFunc[T, R any] func(context.Context, T) (R, error)

// Predicate decides whether a value is accepted
type Predicate[T any] func(context.Context, T) (bool, error)

// Sink consumes a finished value
type Sink[T any] func(context.Context, T) error

// Combiner merges the next partial result into the accumulated one.
// It is always called as combine(next, accumulated).
type Combiner[T any] func(next, accumulated T) (T, error)

// Divider splits a problem into subproblems
type Divider[P any] func(context.Context, P) ([]P, error)

// Solver solves a problem that is not divided any further
type Solver[P, R any] func(context.Context, P) (R, error)

// ErrorHandler observes a captured error. Returning nil suppresses it,
// returning a different error replaces it.
type ErrorHandler func(error) error

// FromSlice returns a generator that yields the elements of values in order
func FromSlice[T any](values []T) Generator[T] {
	next := 0
	return func(context.Context) Item[T] {
		if next >= len(values) {
			return End[T]()
		}
		v := values[next]
		next++
		return Value(v)
	}
}

// Collect returns a sink appending every value to dst. The sink is not safe
// for concurrent use; patterns invoke sinks from a single goroutine.
func Collect[T any](dst *[]T) Sink[T] {
	return func(_ context.Context, v T) error {
		*dst = append(*dst, v)
		return nil
	}
}
