// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cache

import (
	"testing"

	mc "gitea.com/go-chi/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTwoQueue(t *testing.T, config string) mc.Cache {
	t.Helper()
	c, err := mc.NewCacher(mc.Options{Adapter: "twoqueue", AdapterConfig: config})
	require.NoError(t, err)
	require.NoError(t, c.Flush())
	return c
}

func TestTwoQueueCache(t *testing.T) {
	c := newTwoQueue(t, "10")

	assert.Nil(t, c.Get("key"))
	assert.False(t, c.IsExist("key"))

	assert.NoError(t, c.Put("key", "value", 0))
	assert.Equal(t, "value", c.Get("key"))
	assert.True(t, c.IsExist("key"))

	assert.NoError(t, c.Delete("key"))
	assert.Nil(t, c.Get("key"))

	assert.NoError(t, c.Put("n", 1, 0))
	assert.NoError(t, c.Incr("n"))
	assert.NoError(t, c.Incr("n"))
	assert.NoError(t, c.Decr("n"))
	assert.Equal(t, 2, c.Get("n"))

	assert.NoError(t, c.Flush())
	assert.Nil(t, c.Get("n"))

	assert.NoError(t, c.Ping())
}

func TestTwoQueueCacheJSONConfig(t *testing.T) {
	c := newTwoQueue(t, `{"size":10,"recent_ratio":0.3,"ghost_ratio":0.6}`)

	assert.NoError(t, c.Put("key", "value", 0))
	assert.Equal(t, "value", c.Get("key"))
}

func TestTwoQueueCacheEviction(t *testing.T) {
	c := newTwoQueue(t, "10")

	for i := 0; i < 100; i++ {
		assert.NoError(t, c.Put(string(rune('a'+i)), i, 0))
	}

	// a bounded cache must have evicted most of the early entries
	present := 0
	for i := 0; i < 100; i++ {
		if c.IsExist(string(rune('a' + i))) {
			present++
		}
	}
	assert.LessOrEqual(t, present, 10)
}
