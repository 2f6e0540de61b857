package errors

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Empty(t *testing.T) {
	c := NewCollector()
	assert.NoError(t, c.Err())
	assert.False(t, c.Record(nil))
	assert.Zero(t, c.Len())
}

func TestCollector_JoinsEveryError(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")

	c := NewCollector()
	assert.True(t, c.Record(first))
	assert.True(t, c.Record(second))

	err := c.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Equal(t, 2, c.Len())
}

func TestCollector_Handler(t *testing.T) {
	ignored := errors.New("ignored")
	c := NewCollector(WithHandler(func(err error) error {
		if errors.Is(err, ignored) {
			return nil
		}
		return fmt.Errorf("handled: %w", err)
	}))

	assert.False(t, c.Record(ignored))
	assert.True(t, c.Record(errors.New("kept")))

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Suppressed())
	assert.Contains(t, c.Err().Error(), "handled: kept")
}

func TestCollector_RecordHook(t *testing.T) {
	var seen []error
	c := NewCollector(WithRecordHook(func(err error) { seen = append(seen, err) }))

	cause := errors.New("cause")
	c.Record(cause)
	assert.Equal(t, []error{cause}, seen)
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Record(fmt.Errorf("worker %d item %d", i, j))
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 800, c.Len())
}
