package ingest

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCache_MemoizesPerKey(t *testing.T) {
	t.Parallel()

	cache := newResolveCache()
	var calls atomic.Int64

	for range 5 {
		id, err := cache.state("Karnataka", func() (int64, error) {
			calls.Add(1)
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
	}

	assert.Equal(t, int64(1), calls.Load())
}

func TestResolveCache_ErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	cache := newResolveCache()
	var calls atomic.Int64

	_, err := cache.state("Karnataka", func() (int64, error) {
		calls.Add(1)
		return 0, errors.New("boom")
	})
	require.Error(t, err)

	id, err := cache.state("Karnataka", func() (int64, error) {
		calls.Add(1)
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.Equal(t, int64(2), calls.Load())
}

func TestResolveCache_KeysDoNotCollide(t *testing.T) {
	t.Parallel()

	cache := newResolveCache()

	// Same name under different parents must resolve independently.
	a, err := cache.district(1, "Nagpur", func() (int64, error) { return 10, nil })
	require.NoError(t, err)
	b, err := cache.district(2, "Nagpur", func() (int64, error) { return 20, nil })
	require.NoError(t, err)

	assert.Equal(t, int64(10), a)
	assert.Equal(t, int64(20), b)
}

func TestResolveCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	cache := newResolveCache()
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := cache.commodity("Tomato", "Local", "FAQ", func() (int64, error) {
				return 99, nil
			})
			assert.NoError(t, err)
			assert.Equal(t, int64(99), id)
		}()
	}

	wg.Wait()
}
