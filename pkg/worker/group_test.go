package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/goparallel/internal/testutils"
	"github.com/jzx17/goparallel/pkg/types"
)

func TestNewGroup(t *testing.T) {
	tests := []struct {
		name        string
		size        int
		expectError bool
	}{
		{"single worker", 1, false},
		{"several workers", 8, false},
		{"zero workers", 0, true},
		{"negative workers", -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group, err := NewGroup("test", tt.size)
			if tt.expectError {
				assert.ErrorIs(t, err, types.ErrInvalidConfig)
				assert.Nil(t, group)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.size, group.Size())
			assert.Equal(t, "test", group.Name())
		})
	}
}

func TestGroup_WorkerIdentity(t *testing.T) {
	group, err := NewGroup("identity", 4)
	require.NoError(t, err)

	var mu sync.Mutex
	var ids []int
	require.NoError(t, group.Init(context.Background(), func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		ids = append(ids, ID(ctx))
		return nil
	}))
	require.NoError(t, group.Shutdown())

	sort.Ints(ids)
	assert.Equal(t, []int{0, 1, 2, 3}, ids)
	for _, ws := range group.GetWorkerStats() {
		assert.Equal(t, WorkerStateStopped, ws.State)
	}
}

func TestGroup_InitOnce(t *testing.T) {
	group, err := NewGroup("once", 2)
	require.NoError(t, err)

	noop := func(context.Context) error { return nil }
	require.NoError(t, group.Init(context.Background(), noop))
	assert.ErrorIs(t, group.Init(context.Background(), noop), types.ErrAlreadyStarted)
	require.NoError(t, group.Shutdown())

	// a joined group reports nothing further
	assert.NoError(t, group.Shutdown())
}

func TestGroup_ShutdownBeforeInit(t *testing.T) {
	group, err := NewGroup("idle", 1)
	require.NoError(t, err)
	assert.Error(t, group.Shutdown())
}

func TestGroup_JoinsLoopErrors(t *testing.T) {
	group, err := NewGroup("errors", 3)
	require.NoError(t, err)

	first := errors.New("worker 0 failed")
	require.NoError(t, group.Init(context.Background(), func(ctx context.Context) error {
		switch ID(ctx) {
		case 0:
			return first
		case 1:
			panic("worker 1 panicked")
		}
		return nil
	}))

	err = group.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	var panicErr *types.PanicError
	assert.ErrorAs(t, err, &panicErr)
}

func TestGroup_StatsCountItems(t *testing.T) {
	group, err := NewGroup("stats", 2)
	require.NoError(t, err)

	testutils.RequireReturns(t, testutils.DefaultTimeout, func() {
		require.NoError(t, group.Init(context.Background(), func(ctx context.Context) error {
			for i := 0; i < 5; i++ {
				_ = Do(ctx, func(context.Context) error {
					if i == 0 {
						return errors.New("first item fails")
					}
					return nil
				})
			}
			return nil
		}))
		require.NoError(t, group.Shutdown())
	})

	stats := group.Stats()
	assert.Equal(t, 2, stats.PoolSize)
	assert.Equal(t, int64(8), stats.Completed)
	assert.Equal(t, int64(2), stats.Failed)
	assert.Zero(t, stats.ActiveWorkers)
}
