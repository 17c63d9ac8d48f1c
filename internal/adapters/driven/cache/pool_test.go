package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/historycourt/internal/core/domain"
)

func pool(n int) []domain.RealItem {
	items := make([]domain.RealItem, n)
	for i := range items {
		items[i] = domain.RealItem{ID: i, Host: fmt.Sprintf("h%d.com", i), Title: "t", Tag: "news"}
	}
	return items
}

func TestPoolCache_GetAdd(t *testing.T) {
	c, err := NewPoolCache(4)
	require.NoError(t, err)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Add("s1|news|300", pool(3))
	got, ok := c.Get("s1|news|300")
	require.True(t, ok)
	assert.Equal(t, pool(3), got)
}

func TestPoolCache_CopiesPools(t *testing.T) {
	c, err := NewPoolCache(4)
	require.NoError(t, err)

	in := pool(2)
	c.Add("k", in)
	in[0].Title = "changed after add"

	out, _ := c.Get("k")
	assert.Equal(t, "t", out[0].Title)

	out[1].Title = "changed after get"
	again, _ := c.Get("k")
	assert.Equal(t, "t", again[1].Title)
}

func TestPoolCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewPoolCache(2)
	require.NoError(t, err)

	c.Add("a", pool(1))
	c.Add("b", pool(1))
	_, _ = c.Get("a")
	c.Add("c", pool(1))

	_, okA := c.Get("a")
	_, okB := c.Get("b")
	_, okC := c.Get("c")
	assert.True(t, okA)
	assert.False(t, okB, "b was least recently used")
	assert.True(t, okC)
	assert.Equal(t, 2, c.Len())
}

func TestNewPoolCache_DefaultSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		c, err := NewPoolCache(size)
		require.NoError(t, err)
		for i := range domain.DefaultPoolCacheSize + 1 {
			c.Add(fmt.Sprint(i), pool(1))
		}
		assert.Equal(t, domain.DefaultPoolCacheSize, c.Len())
	}
}

func TestPoolCache_Concurrent(t *testing.T) {
	c, err := NewPoolCache(8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprint(i % 10)
			c.Add(key, pool(2))
			if got, ok := c.Get(key); ok {
				assert.Len(t, got, 2)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 8)
}
