package pattern

import (
	"context"
	"fmt"

	"github.com/jzx17/goparallel/pkg/types"
	"github.com/jzx17/goparallel/pkg/worker"
)

// IterateOption configures Iterate and IterationStage
type IterateOption func(*iterateConfig)

type iterateConfig struct {
	maxIterations int
}

// MaxIterations stops the loop with ErrIterationLimit after n transforms. Zero means no limit.
func MaxIterations(n int) IterateOption {
	return func(c *iterateConfig) {
		if n >= 0 {
			c.maxIterations = n
		}
	}
}

func newIterateConfig(opts []IterateOption) iterateConfig {
	var cfg iterateConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Iterate applies transform to value, then keeps applying it to the result
// until until accepts it. transform runs at least once. It runs on the calling
// goroutine; use IterationStage to iterate inside a Pipeline.
func Iterate[T any](ctx context.Context, value T, transform types.ProcessFunc[T, T], until types.Predicate[T],
	opts ...IterateOption) (T, error) {
	if transform == nil || until == nil {
		return value, fmt.Errorf("iterate: transform and predicate are required: %w", types.ErrInvalidInput)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return iterate(ctx, value, transform, until, newIterateConfig(opts))
}

func iterate[T any](ctx context.Context, value T, transform types.ProcessFunc[T, T], until types.Predicate[T],
	cfg iterateConfig) (T, error) {
	cur := value
	for i := 0; ; i++ {
		if cfg.maxIterations > 0 && i >= cfg.maxIterations {
			return cur, fmt.Errorf("iterate: no convergence after %d iterations: %w", i, types.ErrIterationLimit)
		}

		next := cur
		err := worker.Guard(func() error {
			var err error
			next, err = transform(ctx, cur)
			return err
		})
		if err != nil {
			return cur, types.NewCallbackError("iteration", roleTransform.String(), worker.ID(ctx), uint64(i), err)
		}
		cur = next

		var done bool
		err = worker.Guard(func() error {
			var err error
			done, err = until(ctx, cur)
			return err
		})
		if err != nil {
			return cur, types.NewCallbackError("iteration", rolePredicate.String(), worker.ID(ctx), uint64(i), err)
		}
		if done {
			return cur, nil
		}
	}
}
