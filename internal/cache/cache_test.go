package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetGet(t *testing.T) {
	c := New(time.Minute)

	c.Set("a", 42, 0)

	v, found := c.Get("a")
	assert.True(t, found)
	assert.Equal(t, 42, v)

	_, found = c.Get("missing")
	assert.False(t, found)
}

func TestExpiration(t *testing.T) {
	c := New(time.Minute)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("short", "x", time.Second)
	c.Set("long", "y", 0)

	now = now.Add(2 * time.Second)

	_, found := c.Get("short")
	assert.False(t, found)

	v, found := c.Get("long")
	assert.True(t, found)
	assert.Equal(t, "y", v)
}

func TestPurge(t *testing.T) {
	c := New(time.Minute)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Second)
	c.Set("b", 2, time.Hour)
	now = now.Add(time.Minute)

	c.Purge()

	assert.Equal(t, 1, c.Len())
}

func TestDelete(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1, 0)
	c.Delete("a")

	_, found := c.Get("a")
	assert.False(t, found)
}
