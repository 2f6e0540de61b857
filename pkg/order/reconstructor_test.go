package order

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/goparallel/internal/testutils"
	"github.com/jzx17/goparallel/pkg/types"
)

func collect[T any](dst *[]T) Emit[T] {
	return func(_ uint64, v T) {
		*dst = append(*dst, v)
	}
}

func TestReconstructor_ReleasesContiguousRun(t *testing.T) {
	r := New[string]()
	var out []string

	require.NoError(t, r.Submit(2, "c", true))
	require.NoError(t, r.Submit(1, "b", true))
	assert.Equal(t, 0, r.Drain(collect(&out)))
	assert.Empty(t, out)
	assert.Equal(t, 2, r.Pending())

	require.NoError(t, r.Submit(0, "a", true))
	assert.Equal(t, 3, r.Drain(collect(&out)))
	assert.Equal(t, []string{"a", "b", "c"}, out)
	assert.Equal(t, uint64(3), r.Next())
	assert.Zero(t, r.Pending())
}

func TestReconstructor_Placeholders(t *testing.T) {
	r := New[int]()
	var out []int

	require.NoError(t, r.Submit(1, 0, false))
	require.NoError(t, r.Submit(0, 10, true))
	require.NoError(t, r.Submit(2, 30, true))

	assert.Equal(t, 3, r.Drain(collect(&out)))
	assert.Equal(t, []int{10, 30}, out)
	assert.Equal(t, uint64(3), r.Next())
}

func TestReconstructor_Duplicates(t *testing.T) {
	r := New[int]()
	var out []int

	require.NoError(t, r.Submit(1, 1, true))
	assert.ErrorIs(t, r.Submit(1, 1, true), types.ErrDuplicateSequence)

	require.NoError(t, r.Submit(0, 0, true))
	r.Drain(collect(&out))
	assert.ErrorIs(t, r.Submit(0, 0, true), types.ErrDuplicateSequence)
	assert.Equal(t, []int{0, 1}, out)
}

func TestReconstructor_FlushSkipsGaps(t *testing.T) {
	r := New[int]()
	var out []int

	require.NoError(t, r.Submit(5, 5, true))
	require.NoError(t, r.Submit(3, 3, true))
	require.NoError(t, r.Submit(9, 9, true))

	assert.Equal(t, 3, r.Flush(collect(&out)))
	assert.Equal(t, []int{3, 5, 9}, out)
	assert.Equal(t, uint64(10), r.Next())
	assert.Zero(t, r.Flush(collect(&out)))
}

func TestReconstructor_SkewWindow(t *testing.T) {
	r := New[int](WithMaxSkew(2))

	require.NoError(t, r.Submit(1, 1, true))
	assert.ErrorIs(t, r.Submit(2, 2, true), types.ErrSkewExceeded)
	assert.Equal(t, 1, r.Pending())
	require.NoError(t, r.Admit(1))
}

func TestReconstructor_AdmitWaitsForCursor(t *testing.T) {
	var stalls int64
	r := New[int](WithMaxSkew(1), WithStallObserver(func(seq, next uint64) {
		atomic.AddInt64(&stalls, 1)
		assert.Equal(t, uint64(1), seq)
		assert.Equal(t, uint64(0), next)
	}))

	admitted := make(chan error, 1)
	go func() { admitted <- r.Admit(1) }()

	require.Eventually(t, func() bool { return atomic.LoadInt64(&stalls) > 0 }, testutils.DefaultTimeout, time.Millisecond)
	select {
	case <-admitted:
		t.Fatal("admitted before the cursor moved")
	default:
	}

	require.NoError(t, r.Submit(0, 0, true))
	r.Drain(func(uint64, int) {})

	testutils.RequireReturns(t, testutils.DefaultTimeout, func() {
		require.NoError(t, <-admitted)
	})
	assert.GreaterOrEqual(t, r.Stalls(), int64(1))
}

func TestReconstructor_CloseReleasesAdmit(t *testing.T) {
	r := New[int](WithMaxSkew(1))

	admitted := make(chan error, 1)
	go func() { admitted <- r.Admit(5) }()

	r.Close()
	testutils.RequireReturns(t, testutils.DefaultTimeout, func() {
		assert.ErrorIs(t, <-admitted, types.ErrClosedQueue)
	})
}

func TestReconstructor_PendingObserver(t *testing.T) {
	var pending int64
	r := New[int](WithPendingObserver(func(delta int64) { pending += delta }))

	require.NoError(t, r.Submit(1, 1, true))
	require.NoError(t, r.Submit(2, 2, true))
	assert.Equal(t, int64(2), pending)

	require.NoError(t, r.Submit(0, 0, true))
	r.Drain(func(uint64, int) {})
	assert.Zero(t, pending)
}

func TestReconstructor_ConcurrentSubmit(t *testing.T) {
	const n = 1000
	r := New[int]()

	seqs := rand.Perm(n)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < n; i += 4 {
				assert.NoError(t, r.Submit(uint64(seqs[i]), seqs[i], true))
			}
		}(w)
	}
	wg.Wait()

	var out []int
	assert.Equal(t, n, r.Drain(collect(&out)))
	assert.Equal(t, testutils.Ints(0, n-1), out)
}
