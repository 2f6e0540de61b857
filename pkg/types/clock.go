// Package types provides the clock that times pattern runs and retry delays
package types

import (
	"context"
	"time"
)

// Clock is the time source of an execution context. Worker statistics, run
// durations and retry delays all read it, so a test can replace it.
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// Since returns the time elapsed since t
	Since(t time.Time) time.Duration
	// After returns a channel that delivers the current time after d
	After(d time.Duration) <-chan time.Time
}

// RealClock implements Clock with the time package
type RealClock struct{}

// NewRealClock creates a new real clock
func NewRealClock() Clock {
	return RealClock{}
}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

type clockKey struct{}

// WithClock stores clock in ctx. Patterns store the execution context's clock
// in the context passed to every callback.
func WithClock(ctx context.Context, clock Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, clock)
}

// ClockFromContext returns the clock stored in ctx, or a RealClock
func ClockFromContext(ctx context.Context) Clock {
	if clock, ok := ctx.Value(clockKey{}).(Clock); ok {
		return clock
	}
	return NewRealClock()
}
