package pattern

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jzx17/goparallel/pkg/execution"
)

// newExec builds a context with the given worker count and closes it at test end
func newExec(t *testing.T, workers int, modify ...func(*execution.Config)) *execution.Context {
	return newExecWith(t, workers, nil, modify...)
}

func newExecWith(t *testing.T, workers int, opts []execution.Option, modify ...func(*execution.Config)) *execution.Context {
	t.Helper()

	cfg := execution.DefaultConfig()
	cfg.Workers = workers
	cfg.QueueCapacity = 8
	for _, m := range modify {
		m(&cfg)
	}

	ex, err := execution.New(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { ex.Close() })
	return ex
}

func unordered(c *execution.Config) {
	c.Ordering = false
}

func sequential(c *execution.Config) {
	c.Backend = execution.BackendSequential
}

func lockFree(c *execution.Config) {
	c.LockFree = true
}

func double(x int) int {
	return x * 2
}
