package secrets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryCache(t *testing.T) {
	t.Run("get and expire", func(t *testing.T) {
		c := NewInMemoryCache(time.Minute, 0)
		c.Set("k", "v", 0)
		v, ok := c.Get("k")
		assert.True(t, ok)
		assert.Equal(t, "v", v)

		c.Set("short", "x", 10*time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		_, ok = c.Get("short")
		assert.False(t, ok)
		assert.Equal(t, 1, c.Size())
	})

	t.Run("evicts closest to expiry when full", func(t *testing.T) {
		c := NewInMemoryCache(time.Minute, 2)
		c.Set("soon", "1", time.Second)
		c.Set("later", "2", time.Hour)
		c.Set("new", "3", time.Hour)

		_, ok := c.Get("soon")
		assert.False(t, ok)
		_, ok = c.Get("later")
		assert.True(t, ok)
		_, ok = c.Get("new")
		assert.True(t, ok)
	})

	t.Run("overwrite does not evict", func(t *testing.T) {
		c := NewInMemoryCache(time.Minute, 1)
		c.Set("k", "1", 0)
		c.Set("k", "2", 0)
		v, ok := c.Get("k")
		assert.True(t, ok)
		assert.Equal(t, "2", v)
	})
}
