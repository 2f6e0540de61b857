// Package testutils provides helpers shared by package tests
package testutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds every call guarded by RequireReturns
const DefaultTimeout = 5 * time.Second

// RequireReturns runs fn on its own goroutine and fails the test if it does not
// return within timeout. A hang here means a pattern deadlocked.
func RequireReturns(t testing.TB, timeout time.Duration, fn func()) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		require.FailNow(t, "call did not return", "timed out after %s", timeout)
	}
}

// Ints returns the slice [from, to]
func Ints(from, to int) []int {
	if to < from {
		return nil
	}
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
