package pattern

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/goparallel/internal/testutils"
	"github.com/jzx17/goparallel/pkg/types"
	"github.com/jzx17/goparallel/pkg/worker"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		n, w int
		want []span
	}{
		{name: "empty", n: 0, w: 4, want: nil},
		{name: "even", n: 8, w: 4, want: []span{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{name: "remainder to last", n: 10, w: 4, want: []span{{0, 2}, {2, 4}, {4, 6}, {6, 10}}},
		{name: "more workers than items", n: 3, w: 8, want: []span{{0, 1}, {1, 2}, {2, 3}}},
		{name: "single worker", n: 5, w: 1, want: []span{{0, 5}}},
		{name: "zero workers", n: 5, w: 0, want: []span{{0, 5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, split(tt.n, tt.w))
		})
	}
}

func TestMap_DeterministicAcrossWorkers(t *testing.T) {
	input := testutils.Ints(0, 99)
	want := make([]int, len(input))
	for i, x := range input {
		want[i] = x + 1
	}

	for workers := 1; workers <= 12; workers++ {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			ex := newExec(t, workers)
			var out []int
			testutils.RequireReturns(t, testutils.DefaultTimeout, func() {
				var err error
				out, err = Map(context.Background(), ex, input, Transform(jitter))
				require.NoError(t, err)
			})
			assert.Equal(t, want, out)
		})
	}

	t.Run("sequential", func(t *testing.T) {
		ex := newExec(t, 4, sequential)
		out, err := Map(context.Background(), ex, input, Transform(jitter))
		require.NoError(t, err)
		assert.Equal(t, want, out)
	})
}

func TestMap_FewerItemsThanWorkers(t *testing.T) {
	ex := newExec(t, 8)

	out, err := Map(context.Background(), ex, []int{1, 2, 3}, Transform(double))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, out)

	out, err = Map(context.Background(), ex, nil, Transform(double))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestMap_FirstChunkRunsOnCaller(t *testing.T) {
	ex := newExec(t, 4)

	ids, err := Map(context.Background(), ex, testutils.Ints(0, 7), func(ctx context.Context, _ int) (int, error) {
		return worker.ID(ctx), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{-1, -1}, ids[:2])
}

func TestMap_Errors(t *testing.T) {
	ex := newExec(t, 3)
	boom := errors.New("boom")

	out, err := Map(context.Background(), ex, testutils.Ints(0, 9), TryTransform(func(x int) (int, error) {
		if x == 7 {
			return -1, boom
		}
		return x * 10, nil
	}))

	assert.ErrorIs(t, err, boom)
	var cbErr *types.CallbackError
	require.ErrorAs(t, err, &cbErr)
	assert.Equal(t, "map", cbErr.Pattern)
	assert.Equal(t, uint64(7), cbErr.Sequence)
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 0, 80, 90}, out)
}

func TestMap2(t *testing.T) {
	ex := newExec(t, 3)

	names := []string{"a", "b", "c", "d"}
	counts := []int{1, 2, 3, 4}
	out, err := Map2(context.Background(), ex, names, counts, func(ctx context.Context, s string, n int) (string, error) {
		return fmt.Sprintf("%s%d", s, n), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b2", "c3", "d4"}, out)

	_, err = Map2(context.Background(), ex, names, counts[:2], func(ctx context.Context, s string, n int) (string, error) {
		return s, nil
	})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestMapZip(t *testing.T) {
	ex := newExec(t, 4)
	sum := func(ctx context.Context, row []int) (int, error) {
		total := 0
		for _, v := range row {
			total += v
		}
		return total, nil
	}

	out, err := MapZip(context.Background(), ex, sum, []int{1, 2, 3}, []int{10, 20, 30}, []int{100, 200, 300})
	require.NoError(t, err)
	assert.Equal(t, []int{111, 222, 333}, out)

	_, err = MapZip(context.Background(), ex, sum, []int{1, 2, 3}, []int{1})
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	_, err = MapZip(context.Background(), ex, sum)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestMap_SharedPoolAcrossInvocations(t *testing.T) {
	ex := newExec(t, 4)
	input := testutils.Ints(0, 199)

	results := make([][]int, 8)
	errs := make([]error, 8)
	done := make(chan int)
	for i := range results {
		go func() {
			results[i], errs[i] = Map(context.Background(), ex, input, Transform(double))
			done <- i
		}()
	}

	testutils.RequireReturns(t, testutils.DefaultTimeout, func() {
		for range results {
			<-done
		}
	})
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, 398, results[i][199])
	}
}
