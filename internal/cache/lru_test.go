package cache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a") // a is now most recent
	c.Set("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[string](4, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("j", "w")
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Zero(t, c.Size())
}

func TestGetOrLoadCollapsesConcurrentLoads(t *testing.T) {
	c := NewLRUCache[[]byte](4, time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrLoad("rev-1", func() ([]byte, error) {
				calls.Add(1)
				<-release
				return []byte("pdf"), nil
			})
			assert.NoError(t, err)
			assert.Equal(t, []byte("pdf"), v)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())

	_, cached, err := c.GetOrLoad("rev-1", func() ([]byte, error) {
		t.Fatal("loader should not run for a cached key")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, cached)
}

func TestGetOrLoadDoesNotCacheErrors(t *testing.T) {
	c := NewLRUCache[int](4, time.Minute)
	_, _, err := c.GetOrLoad("k", func() (int, error) { return 0, errors.New("boom") })
	require.Error(t, err)
	assert.Zero(t, c.Size())

	v, cached, err := c.GetOrLoad("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 7, v)
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	m := NewManager()
	caches := make([]*LRUCache[int], 3)
	now := time.Now()
	for i := range caches {
		caches[i] = NewLRUCache[int](4, time.Second)
		caches[i].now = func() time.Time { return now }
		caches[i].Set(fmt.Sprint(i), i)
		m.Register(caches[i])
	}
	now = now.Add(time.Hour)

	assert.Equal(t, 3, m.CleanNow())
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
