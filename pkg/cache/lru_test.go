package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRU_SetGet(t *testing.T) {
	c := NewLRU[string, int](10, time.Minute, nil)
	c.Set("count employees", 3)

	v, ok := c.Get("count employees")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := NewLRU[string, int](2, time.Minute, func(k string, _ int) { evicted = append(evicted, k) })
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.True(t, c.Contains("b"))
	assert.True(t, c.Contains("c"))
	assert.Equal(t, []string{"a"}, evicted)
}

func TestLRU_GetRefreshesRecency(t *testing.T) {
	c := NewLRU[string, int](2, time.Minute, nil)
	c.Set("a", 1)
	c.Set("b", 2)
	_, _ = c.Get("a")
	c.Set("c", 3)

	assert.True(t, c.Contains("a"))
	assert.False(t, c.Contains("b"))
}

func TestLRU_Expiry(t *testing.T) {
	c := NewLRU[string, int](10, 30*time.Millisecond, nil)
	c.Set("a", 1)
	time.Sleep(80 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRU_Clear(t *testing.T) {
	c := NewLRU[string, int](10, time.Minute, nil)
	c.Set("a", 1)
	c.Set("b", 2)
	assert.Equal(t, []string{"a", "b"}, c.Keys())

	c.Clear()
	assert.Zero(t, c.Len())
	c.Del("missing")
}
