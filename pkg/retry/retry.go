package retry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jzx17/goparallel/pkg/types"
)

// Stats counts attempts across every call made through a decorator
type Stats struct {
	attempts  atomic.Int64
	retries   atomic.Int64
	successes atomic.Int64
	failures  atomic.Int64
	waited    atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	TotalAttempts   int64
	TotalRetries    int64
	TotalSuccesses  int64
	TotalFailures   int64
	TotalRetryDelay time.Duration
}

// Snapshot returns the current counters
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalAttempts:   s.attempts.Load(),
		TotalRetries:    s.retries.Load(),
		TotalSuccesses:  s.successes.Load(),
		TotalFailures:   s.failures.Load(),
		TotalRetryDelay: time.Duration(s.waited.Load()),
	}
}

// Option configures Do and Wrap
type Option func(*options)

type options struct {
	stats   *Stats
	onRetry func(attempt int, err error, delay time.Duration)
}

// WithStats records attempts in stats
func WithStats(stats *Stats) Option {
	return func(o *options) {
		o.stats = stats
	}
}

// WithOnRetry is called before each wait with the attempt that failed
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(o *options) {
		o.onRetry = fn
	}
}

// ExhaustedError is returned when every allowed attempt failed
type ExhaustedError struct {
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the error of the last attempt
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Do calls fn until it succeeds or policy gives up. Delays are measured on the
// clock carried by ctx, so a mock clock set with types.WithClock drives them.
// Waiting stops early when ctx is done.
func Do[R any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (R, error), opts ...Option) (R, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	clock := types.ClockFromContext(ctx)
	logger := zerolog.Ctx(ctx)

	var zero R
	for attempt := 1; ; attempt++ {
		if o.stats != nil {
			o.stats.attempts.Add(1)
			if attempt > 1 {
				o.stats.retries.Add(1)
			}
		}

		result, err := fn(ctx)
		if err == nil {
			if o.stats != nil {
				o.stats.successes.Add(1)
			}
			return result, nil
		}

		if !policy.ShouldRetry(err, attempt) {
			if o.stats != nil {
				o.stats.failures.Add(1)
			}
			if attempt > 1 {
				return zero, &ExhaustedError{Attempts: attempt, Err: err}
			}
			return zero, err
		}

		delay := policy.NextDelay(attempt)
		logger.Debug().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("retrying callback")
		if o.onRetry != nil {
			o.onRetry(attempt, err, delay)
		}
		if o.stats != nil {
			o.stats.waited.Add(int64(delay))
		}

		if delay > 0 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry after attempt %d: %w", attempt, ctx.Err())
			case <-clock.After(delay):
			}
		}
	}
}

// Wrap decorates a pattern callback so that each call is retried under policy.
// The wrapped callback still reports a failure once policy gives up; patterns
// never retry on their own.
func Wrap[T, R any](fn types.ProcessFunc[T, R], policy RetryPolicy, opts ...Option) types.ProcessFunc[T, R] {
	return func(ctx context.Context, input T) (R, error) {
		return Do(ctx, policy, func(ctx context.Context) (R, error) {
			return fn(ctx, input)
		}, opts...)
	}
}
