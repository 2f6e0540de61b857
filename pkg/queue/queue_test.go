package queue

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jzx17/goparallel/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kinds = []struct {
	name     string
	lockfree bool
}{
	{"locked", false},
	{"lockfree", true},
}

func TestNew_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		q, err := New[int](capacity, false)
		assert.Nil(t, q)
		assert.True(t, errors.Is(err, types.ErrInvalidConfig))
	}
}

func TestQueue_FIFO(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			q, err := New[int](4, k.lockfree)
			require.NoError(t, err)
			assert.Equal(t, 4, q.Cap())

			for i := 0; i < 4; i++ {
				require.NoError(t, q.Push(i))
			}
			assert.Equal(t, 4, q.Len())

			for i := 0; i < 4; i++ {
				assert.Equal(t, i, q.Pop().MustGet())
			}
			assert.Equal(t, 0, q.Len())
		})
	}
}

func TestQueue_TryPushFull(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			q, err := New[string](1, k.lockfree)
			require.NoError(t, err)

			ok, err := q.TryPush("a")
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = q.TryPush("b")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.Equal(t, "a", q.Pop().MustGet())
		})
	}
}

func TestQueue_PushBlocksWhileFull(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			q, err := New[int](1, k.lockfree)
			require.NoError(t, err)
			require.NoError(t, q.Push(1))

			pushed := make(chan struct{})
			go func() {
				defer close(pushed)
				assert.NoError(t, q.Push(2))
			}()

			select {
			case <-pushed:
				t.Fatal("push should block while the queue is full")
			case <-time.After(50 * time.Millisecond):
			}

			assert.Equal(t, 1, q.Pop().MustGet())
			<-pushed
			assert.Equal(t, 2, q.Pop().MustGet())
		})
	}
}

func TestQueue_CloseSemantics(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			q, err := New[int](4, k.lockfree)
			require.NoError(t, err)
			require.NoError(t, q.Push(7))
			require.NoError(t, q.Close())

			// queued values survive Close
			assert.Equal(t, 7, q.Pop().MustGet())

			// every consumer keeps observing End
			assert.True(t, q.Pop().IsEnd())
			assert.True(t, q.Pop().IsEnd())

			assert.ErrorIs(t, q.Push(8), types.ErrClosedQueue)
			_, err = q.TryPush(8)
			assert.ErrorIs(t, err, types.ErrClosedQueue)
			assert.ErrorIs(t, q.Close(), types.ErrClosedQueue)
		})
	}
}

func TestQueue_CloseWakesBlockedConsumers(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			q, err := New[int](2, k.lockfree)
			require.NoError(t, err)

			const consumers = 4
			var wg sync.WaitGroup
			ends := make(chan bool, consumers)
			for i := 0; i < consumers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ends <- q.Pop().IsEnd()
				}()
			}

			time.Sleep(20 * time.Millisecond)
			require.NoError(t, q.Close())
			wg.Wait()
			close(ends)

			for end := range ends {
				assert.True(t, end)
			}
		})
	}
}

func TestQueue_ConcurrentNoLossNoDuplication(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			q, err := New[int](8, k.lockfree)
			require.NoError(t, err)

			const producers, consumers, perProducer = 4, 4, 500

			var prodWG, consWG sync.WaitGroup
			var mu sync.Mutex
			var got []int

			for c := 0; c < consumers; c++ {
				consWG.Add(1)
				go func() {
					defer consWG.Done()
					for {
						item := q.Pop()
						v, ok := item.Get()
						if !ok {
							return
						}
						mu.Lock()
						got = append(got, v)
						mu.Unlock()
					}
				}()
			}

			for p := 0; p < producers; p++ {
				prodWG.Add(1)
				go func(base int) {
					defer prodWG.Done()
					for i := 0; i < perProducer; i++ {
						assert.NoError(t, q.Push(base+i))
					}
				}(p * perProducer)
			}

			prodWG.Wait()
			require.NoError(t, q.Close())
			consWG.Wait()

			require.Len(t, got, producers*perProducer)
			sort.Ints(got)
			for i, v := range got {
				assert.Equal(t, i, v)
			}
		})
	}
}

func TestQueue_PushRacingCloseIsNeverLost(t *testing.T) {
	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			for round := 0; round < 50; round++ {
				q, err := New[int](4, k.lockfree)
				require.NoError(t, err)

				const producers = 4
				var accepted, popped sync.WaitGroup
				var mu sync.Mutex
				pushed := 0

				popped.Add(1)
				received := 0
				go func() {
					defer popped.Done()
					for !q.Pop().IsEnd() {
						received++
					}
				}()

				for p := 0; p < producers; p++ {
					accepted.Add(1)
					go func() {
						defer accepted.Done()
						for i := 0; ; i++ {
							if err := q.Push(i); err != nil {
								assert.ErrorIs(t, err, types.ErrClosedQueue)
								return
							}
							mu.Lock()
							pushed++
							mu.Unlock()
						}
					}()
				}

				time.Sleep(time.Millisecond)
				require.NoError(t, q.Close())
				accepted.Wait()
				popped.Wait()

				assert.Equal(t, pushed, received, "round %d", round)
			}
		})
	}
}
