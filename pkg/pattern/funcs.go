package pattern

import (
	"context"

	"github.com/jzx17/goparallel/pkg/types"
)

// Transform function mapping - simplest transformation
func Transform[T, R any](transform func(T) R) types.ProcessFunc[T, R] {
	return func(ctx context.Context, input T) (R, error) {
		return transform(input), nil
	}
}

// TryTransform potentially failing mapping
func TryTransform[T, R any](transform func(T) (R, error)) types.ProcessFunc[T, R] {
	return func(ctx context.Context, input T) (R, error) {
		return transform(input)
	}
}

// Compose runs f then g as a single callback, fusing two steps into one stage
func Compose[T, U, V any](f types.ProcessFunc[T, U], g types.ProcessFunc[U, V]) types.ProcessFunc[T, V] {
	return func(ctx context.Context, input T) (V, error) {
		mid, err := f(ctx, input)
		if err != nil {
			var zero V
			return zero, err
		}
		return g(ctx, mid)
	}
}

// HandleErrors passes every error of fn through handler. Returning nil keeps
// the result as a success.
func HandleErrors[T, R any](fn types.ProcessFunc[T, R], handler func(error) error) types.ProcessFunc[T, R] {
	return func(ctx context.Context, input T) (R, error) {
		result, err := fn(ctx, input)
		if err != nil {
			err = handler(err)
		}
		return result, err
	}
}

// Tap observe intermediate values (for debugging)
func Tap[T any](fn types.ProcessFunc[T, T], observer func(T)) types.ProcessFunc[T, T] {
	return func(ctx context.Context, input T) (T, error) {
		result, err := fn(ctx, input)
		if err == nil {
			observer(result)
		}
		return result, err
	}
}

// Where adapts a plain predicate
func Where[T any](predicate func(T) bool) types.Predicate[T] {
	return func(ctx context.Context, input T) (bool, error) {
		return predicate(input), nil
	}
}

// Each adapts a plain consumer into a sink
func Each[T any](consume func(T)) types.Sink[T] {
	return func(ctx context.Context, input T) error {
		consume(input)
		return nil
	}
}

// Combine adapts a plain binary operator into a combiner called as op(next, accumulated)
func Combine[T any](op func(next, accumulated T) T) types.Combiner[T] {
	return func(next, accumulated T) (T, error) {
		return op(next, accumulated), nil
	}
}
