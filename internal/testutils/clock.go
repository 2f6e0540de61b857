package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"

	"github.com/jzx17/goparallel/pkg/types"
)

// NewMockClock creates a mock clock for testing
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper adapts quartz.Mock to types.Clock
type ClockWrapper struct {
	*quartz.Mock
}

// NewClockWrapper creates a new ClockWrapper
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{Mock: mock}
}

// After fires once the mock clock has been advanced by d
func (c *ClockWrapper) After(d time.Duration) <-chan time.Time {
	return c.Mock.NewTimer(d).C
}

// Now returns the mock time
func (c *ClockWrapper) Now() time.Time {
	return c.Mock.Now()
}

// Since returns the mock time elapsed since t
func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

// WithMockClock stores mock in ctx the way patterns store the context clock
func WithMockClock(ctx context.Context, mock *quartz.Mock) context.Context {
	return types.WithClock(ctx, NewClockWrapper(mock))
}

// AdvanceUntil advances mock by step until done delivers, and returns what it
// delivered. Advancing by the delay a waiter uses never skips past its timer.
func AdvanceUntil[T any](t testing.TB, mock *quartz.Mock, step time.Duration, done <-chan T) T {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	for {
		select {
		case v := <-done:
			return v
		case <-ctx.Done():
			t.Fatalf("still waiting after %v of real time", DefaultTimeout)
			var zero T
			return zero
		default:
			mock.Advance(step).MustWait(ctx)
			time.Sleep(time.Millisecond)
		}
	}
}
