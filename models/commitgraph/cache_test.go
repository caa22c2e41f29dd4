// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"code.gitea.io/commitgraph/models/commitgraph"
	"code.gitea.io/commitgraph/models/db"
	"code.gitea.io/commitgraph/models/unittest"

	mc "gitea.com/go-chi/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStorage counts how often the underlying fetch is reached
type countingStorage struct {
	commitgraph.Storage
	fetches int
}

func (c *countingStorage) MaybeFetchManyEdges(ctx context.Context, csIDs []commitgraph.ChangesetID, prefetch commitgraph.Prefetch) (map[commitgraph.ChangesetID]commitgraph.FetchedChangesetEdges, error) {
	c.fetches++
	return c.Storage.MaybeFetchManyEdges(ctx, csIDs, prefetch)
}

// brokenCache fails every operation, like an unreachable memcache
type brokenCache struct{}

func (brokenCache) Put(key string, val any, timeout int64) error { return errors.New("cache down") }
func (brokenCache) Get(key string) any                           { return nil }
func (brokenCache) Delete(key string) error                      { return errors.New("cache down") }
func (brokenCache) Incr(key string) error                        { return errors.New("cache down") }
func (brokenCache) Decr(key string) error                        { return errors.New("cache down") }
func (brokenCache) IsExist(key string) bool                      { return false }
func (brokenCache) Flush() error                                 { return errors.New("cache down") }
func (brokenCache) Ping() error                                  { return errors.New("cache down") }
func (brokenCache) StartAndGC(opts mc.Options) error             { return nil }

func newTestCache(t *testing.T) mc.Cache {
	t.Helper()
	c, err := mc.NewCacher(mc.Options{Adapter: "twoqueue", AdapterConfig: "128"})
	require.NoError(t, err)
	require.NoError(t, c.Flush())
	return c
}

func newCachedStorage(t *testing.T, repoID int64) (*commitgraph.CachingStorage, *countingStorage) {
	t.Helper()
	inner := &countingStorage{Storage: commitgraph.NewSQLStorage(repoID)}
	return commitgraph.NewCachingStorageWithCache(inner, newTestCache(t), 60), inner
}

func TestCachingStorageServesHits(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	cached, inner := newCachedStorage(t, 1)
	seedLinearChain(t, inner, 3)

	want, err := inner.FetchEdges(db.DefaultContext, mkID(3))
	require.NoError(t, err)
	baseline := inner.fetches

	got, err := cached.FetchEdges(db.DefaultContext, mkID(3))
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, baseline+1, inner.fetches)

	// the second fetch is served from the cache
	got, err = cached.FetchEdges(db.DefaultContext, mkID(3))
	assert.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, baseline+1, inner.fetches)
}

func TestCachingStorageStrictMiss(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	cached, _ := newCachedStorage(t, 1)
	seedLinearChain(t, cached, 2)

	_, err := cached.FetchEdges(db.DefaultContext, mkID(0xaa))
	assert.True(t, commitgraph.IsErrNotFoundChangeset(err))

	edges, err := cached.MaybeFetchEdges(db.DefaultContext, mkID(0xaa))
	assert.NoError(t, err)
	assert.Nil(t, edges)
}

func TestCachingStoragePromotesHintAndPiggybacks(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	cached, inner := newCachedStorage(t, 1)
	seedLinearChain(t, inner, 9)

	// the hint is promoted to an include, so the prefetch walk
	// c9 -> c8 -> c1 comes back alongside the anchor
	hint := commitgraph.PrefetchForSkipTreeTraversal(commitgraph.FirstGeneration)
	baseline := inner.fetches
	fetched, err := cached.MaybeFetchManyEdges(db.DefaultContext, []commitgraph.ChangesetID{mkID(9)}, hint)
	assert.NoError(t, err)
	assert.Equal(t, baseline+1, inner.fetches)

	require.Len(t, fetched, 3)
	assert.False(t, fetched[mkID(9)].IsPrefetched())
	assert.Equal(t, mkID(9), fetched[mkID(8)].AnchorCsID)
	assert.Equal(t, mkID(9), fetched[mkID(1)].AnchorCsID)

	// a repeat request is served entirely from the anchor's payload
	fetched, err = cached.MaybeFetchManyEdges(db.DefaultContext, []commitgraph.ChangesetID{mkID(9)}, hint)
	assert.NoError(t, err)
	assert.Len(t, fetched, 3)
	assert.Equal(t, baseline+1, inner.fetches)

	// without an active prefetch the cached anchor comes back alone
	fetched, err = cached.MaybeFetchManyEdges(db.DefaultContext, []commitgraph.ChangesetID{mkID(9)}, commitgraph.PrefetchNone())
	assert.NoError(t, err)
	assert.Len(t, fetched, 1)
	assert.Equal(t, baseline+1, inner.fetches)
}

func TestCachingStorageRequestedIDFromAnchorPayloadIsFetched(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	cached, inner := newCachedStorage(t, 1)
	seedLinearChain(t, inner, 9)

	// warm c9's payload, which carries c8 and c1 as prefetched edges
	hint := commitgraph.PrefetchForSkipTreeTraversal(commitgraph.FirstGeneration)
	_, err := cached.MaybeFetchManyEdges(db.DefaultContext, []commitgraph.ChangesetID{mkID(9)}, hint)
	require.NoError(t, err)

	// c8 is requested directly, so even when it is served out of c9's
	// payload it is tagged as a direct fetch, in either request order
	for _, ids := range [][]commitgraph.ChangesetID{
		{mkID(9), mkID(8)},
		{mkID(8), mkID(9)},
	} {
		fetched, err := cached.MaybeFetchManyEdges(db.DefaultContext, ids, hint)
		require.NoError(t, err)
		require.Contains(t, fetched, mkID(8))
		assert.False(t, fetched[mkID(8)].IsPrefetched())
		assert.False(t, fetched[mkID(9)].IsPrefetched())
		// c1 was not requested and stays a prefetched rider
		require.Contains(t, fetched, mkID(1))
		assert.True(t, fetched[mkID(1)].IsPrefetched())
	}
}

func TestCachingStoragePrefetchedEdgesRideWithAnchor(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	cached, inner := newCachedStorage(t, 1)
	seedLinearChain(t, inner, 9)

	hint := commitgraph.PrefetchForSkipTreeTraversal(commitgraph.FirstGeneration)
	_, err := cached.MaybeFetchManyEdges(db.DefaultContext, []commitgraph.ChangesetID{mkID(9)}, hint)
	require.NoError(t, err)
	baseline := inner.fetches

	// c8 was prefetched into c9's payload only, so asking for it
	// directly still reaches the inner storage
	_, err = cached.FetchEdges(db.DefaultContext, mkID(8))
	assert.NoError(t, err)
	assert.Equal(t, baseline+1, inner.fetches)

	// while the anchor itself keeps hitting the cache
	_, err = cached.FetchEdges(db.DefaultContext, mkID(9))
	assert.NoError(t, err)
	assert.Equal(t, baseline+1, inner.fetches)
}

func TestCachingStorageWithoutCache(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	inner := &countingStorage{Storage: commitgraph.NewSQLStorage(1)}
	cached := commitgraph.NewCachingStorageWithCache(inner, nil, 0)
	seedLinearChain(t, inner, 2)
	baseline := inner.fetches

	for i := 0; i < 2; i++ {
		edges, err := cached.FetchEdges(db.DefaultContext, mkID(2))
		assert.NoError(t, err)
		assert.Equal(t, commitgraph.Generation(2), edges.Node.Generation)
	}
	assert.Equal(t, baseline+2, inner.fetches)
}

func TestCachingStorageBrokenCache(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	inner := &countingStorage{Storage: commitgraph.NewSQLStorage(1)}
	cached := commitgraph.NewCachingStorageWithCache(inner, brokenCache{}, 60)
	seedLinearChain(t, inner, 3)
	baseline := inner.fetches

	// a cache outage degrades to the inner storage, never to an error
	for i := 0; i < 2; i++ {
		edges, err := cached.FetchEdges(db.DefaultContext, mkID(3))
		assert.NoError(t, err)
		assert.Equal(t, commitgraph.Generation(3), edges.Node.Generation)
	}
	assert.Equal(t, baseline+2, inner.fetches)
}

func TestCachingStorageCorruptEntry(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	testCache := newTestCache(t)
	inner := &countingStorage{Storage: commitgraph.NewSQLStorage(1)}
	cached := commitgraph.NewCachingStorageWithCache(inner, testCache, 60)
	seedLinearChain(t, inner, 2)

	key := fmt.Sprintf("commit_graph:v1:1:%s", mkID(2))
	require.NoError(t, testCache.Put(key, "{not json", 60))

	edges, err := cached.FetchEdges(db.DefaultContext, mkID(2))
	assert.NoError(t, err)
	assert.Equal(t, commitgraph.Generation(2), edges.Node.Generation)
}

func TestCachingStoragePassthroughs(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	cached, _ := newCachedStorage(t, 1)

	assert.EqualValues(t, 1, cached.RepositoryID())

	inserted, err := cached.Add(db.DefaultContext, &commitgraph.ChangesetEdges{
		Node:    node(1, commitgraph.FirstGeneration),
		Parents: []commitgraph.ChangesetNode{},
	})
	assert.NoError(t, err)
	assert.True(t, inserted)
	addChangeset(t, cached, mkID(2), mkID(1))

	ids, err := cached.FindByPrefix(db.DefaultContext, mkID(1).String()[:6], 10)
	assert.NoError(t, err)
	assert.Equal(t, []commitgraph.ChangesetID{mkID(1)}, ids)

	children, err := cached.FetchChildren(db.DefaultContext, mkID(1))
	assert.NoError(t, err)
	assert.Equal(t, []commitgraph.ChangesetID{mkID(2)}, children)
}
