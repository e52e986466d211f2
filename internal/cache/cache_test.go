package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCompute_HitAndMiss(t *testing.T) {
	m := New[int](0, 0)
	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	v, hit, err := m.GetOrCompute("a", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42, v)

	v, hit, err = m.GetOrCompute("a", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)

	_, hit, _ = m.GetOrCompute("b", compute)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)

	stats := m.GetStats()
	assert.Equal(t, 1, stats["hits"])
	assert.Equal(t, 2, stats["misses"])
}

func TestGetOrCompute_ErrorsNotCached(t *testing.T) {
	m := New[string](0, 0)
	boom := errors.New("boom")
	_, _, err := m.GetOrCompute("k", func() (string, error) { return "", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, m.Len())

	v, hit, err := m.GetOrCompute("k", func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "ok", v)
}

func TestMemo_Expiry(t *testing.T) {
	m := New[int](time.Minute, 0)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set("k", 1)
	_, ok := m.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = m.Get("k")
	assert.False(t, ok)
}

func TestMemo_EvictsOldest(t *testing.T) {
	m := New[int](0, 2)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { now = now.Add(time.Second); return now }

	m.Set("first", 1)
	m.Set("second", 2)
	m.Set("third", 3)

	assert.Equal(t, 2, m.Len())
	_, ok := m.Get("first")
	assert.False(t, ok)
	_, ok = m.Get("third")
	assert.True(t, ok)
}

func TestGetOrCompute_ConcurrentSingleCompute(t *testing.T) {
	m := New[int](0, 0)
	var mu sync.Mutex
	calls := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = m.GetOrCompute("snapshot", func() (int, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return 1, nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, GenerateKey("a", "b"), GenerateKey("a", "b"))
	assert.NotEqual(t, GenerateKey("ab", ""), GenerateKey("a", "b"))
	assert.Len(t, GenerateKey("x"), 64)
}
