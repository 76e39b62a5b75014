package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicClock_StartsAtZero(t *testing.T) {
	clock := NewDeterministicClock()
	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next())
	assert.Equal(t, int64(2), clock.Next())
	assert.Equal(t, int64(2), clock.Current())
}

func TestDeterministicClock_Reset(t *testing.T) {
	clock := NewDeterministicClock()
	clock.Next()
	clock.Next()

	clock.Reset()

	assert.Equal(t, int64(0), clock.Current())
	assert.Equal(t, int64(1), clock.Next(), "sequence restarts after reset")
}

func TestDeterministicClock_ThreadSafe(t *testing.T) {
	clock := NewDeterministicClock()
	const goroutines = 50
	const calls = 50

	var wg sync.WaitGroup
	seen := make([][]int64, goroutines)
	for i := 0; i < goroutines; i++ {
		seen[i] = make([]int64, calls)
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				seen[idx][j] = clock.Next()
			}
		}(i)
	}
	wg.Wait()

	all := make(map[int64]bool)
	for _, vals := range seen {
		for _, v := range vals {
			require.False(t, all[v], "duplicate value %d", v)
			all[v] = true
		}
	}
	assert.Len(t, all, goroutines*calls)
	assert.Equal(t, int64(goroutines*calls), clock.Current())
}
