package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, newTestCache(t, 0).ttl)
	assert.Equal(t, time.Second, newTestCache(t, time.Second).ttl)
}

func TestGetSet(t *testing.T) {
	c := newTestCache(t, time.Minute)

	require.NoError(t, c.Set("k", "v"))

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	c := newTestCache(t, time.Minute)

	_ = c.Set(ShelfKey("genre"), []string{"Jazz"})
	c.Get(ShelfKey("genre"))
	c.Get(ShelfKey("genre"))
	c.Get(ShelfKey("language"))

	stats := c.Stats()
	assert.Equal(t, int64(2), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	assert.Equal(t, 1, stats["key_count"])
}

func TestInvalidateShelves(t *testing.T) {
	c := newTestCache(t, time.Minute)

	_ = c.Set(ShelfKey("language"), 1)
	_ = c.Set(ShelfKey("genre"), 2)
	_ = c.Set("other", 3)

	assert.Equal(t, 2, c.InvalidateShelves())

	_, ok := c.Get(ShelfKey("language"))
	assert.False(t, ok)
	_, ok = c.Get(ShelfKey("genre"))
	assert.False(t, ok)
	_, ok = c.Get("other")
	assert.True(t, ok, "non-shelf keys survive")
}

func TestExpiry(t *testing.T) {
	c := newTestCache(t, time.Millisecond)

	_ = c.Set("k", "v")
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok, "expired entry must not be returned")

	c.evictBefore(time.Now())
	assert.Equal(t, 0, c.Stats()["key_count"])
}
