// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"context"
	"fmt"

	cache_module "code.gitea.io/commitgraph/modules/cache"
	"code.gitea.io/commitgraph/modules/container"
	"code.gitea.io/commitgraph/modules/json"
	"code.gitea.io/commitgraph/modules/log"
	"code.gitea.io/commitgraph/modules/setting"

	mc "gitea.com/go-chi/cache"
)

// cachePayload is the serialized cache entry for one anchor changeset.
// Prefetched edges are piggybacked into the anchor's payload instead of
// receiving independent entries: a distributed cache may bound entries
// per key, and skip-tree shortcuts are rarely queried on their own.
// Evicting the anchor therefore evicts its prefetched edges with it.
type cachePayload struct {
	Edges      *ChangesetEdges   `json:"edges"`
	Prefetched []*ChangesetEdges `json:"prefetched,omitempty"`
}

// CachingStorage wraps a Storage to avoid redundant fetches for hot
// changesets. A failure of the cache layer degrades to calling the inner
// storage directly; it never turns a cache outage into a hard failure.
type CachingStorage struct {
	inner Storage
	cache mc.Cache
	ttl   int64
}

var _ Storage = &CachingStorage{}

// NewCachingStorage wraps the inner storage with the configured cache.
// With no cache configured every call passes straight through.
func NewCachingStorage(inner Storage) *CachingStorage {
	return &CachingStorage{
		inner: inner,
		cache: cache_module.GetCache(),
		ttl:   setting.CacheService.TTLSeconds(),
	}
}

// NewCachingStorageWithCache wraps the inner storage with an explicit cache
func NewCachingStorageWithCache(inner Storage, cache mc.Cache, ttlSeconds int64) *CachingStorage {
	return &CachingStorage{inner: inner, cache: cache, ttl: ttlSeconds}
}

func (c *CachingStorage) cacheKey(csID ChangesetID) string {
	return fmt.Sprintf("commit_graph:v1:%d:%s", c.inner.RepositoryID(), csID)
}

// RepositoryID implements Storage
func (c *CachingStorage) RepositoryID() int64 {
	return c.inner.RepositoryID()
}

// Add implements Storage. Mutations pass through; edges are immutable so
// there is nothing to invalidate.
func (c *CachingStorage) Add(ctx context.Context, edges *ChangesetEdges) (bool, error) {
	return c.inner.Add(ctx, edges)
}

// AddMany implements Storage
func (c *CachingStorage) AddMany(ctx context.Context, edges []*ChangesetEdges) (int, error) {
	return c.inner.AddMany(ctx, edges)
}

// FetchEdges implements Storage
func (c *CachingStorage) FetchEdges(ctx context.Context, csID ChangesetID) (*ChangesetEdges, error) {
	edges, err := c.MaybeFetchEdges(ctx, csID)
	if err != nil {
		return nil, err
	}
	if edges == nil {
		return nil, ErrNotFoundChangeset{RepoID: c.RepositoryID(), CsIDs: []ChangesetID{csID}}
	}
	return edges, nil
}

// MaybeFetchEdges implements Storage
func (c *CachingStorage) MaybeFetchEdges(ctx context.Context, csID ChangesetID) (*ChangesetEdges, error) {
	fetched, err := c.MaybeFetchManyEdges(ctx, []ChangesetID{csID}, PrefetchNone())
	if err != nil {
		return nil, err
	}
	if e, ok := fetched[csID]; ok {
		return e.ChangesetEdges, nil
	}
	return nil, nil
}

// FetchManyEdges implements Storage
func (c *CachingStorage) FetchManyEdges(ctx context.Context, csIDs []ChangesetID, prefetch Prefetch) (map[ChangesetID]FetchedChangesetEdges, error) {
	fetched, err := c.MaybeFetchManyEdges(ctx, csIDs, prefetch)
	if err != nil {
		return nil, err
	}
	var missing []ChangesetID
	for _, id := range csIDs {
		if _, ok := fetched[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, ErrNotFoundChangeset{RepoID: c.RepositoryID(), CsIDs: missing}
	}
	return fetched, nil
}

// MaybeFetchManyEdges implements Storage. Cached anchors are served
// without touching the inner storage; misses are delegated with the
// prefetch hint promoted to Include, since this layer can absorb the
// extra entries into its cache cheaply.
func (c *CachingStorage) MaybeFetchManyEdges(ctx context.Context, csIDs []ChangesetID, prefetch Prefetch) (map[ChangesetID]FetchedChangesetEdges, error) {
	if c.cache == nil {
		return c.inner.MaybeFetchManyEdges(ctx, csIDs, prefetch)
	}

	prefetch = prefetch.IncludeHint()
	requested := container.SetOf(csIDs...)
	result := make(map[ChangesetID]FetchedChangesetEdges, len(csIDs))
	var misses []ChangesetID
	for _, id := range csIDs {
		if _, ok := result[id]; ok {
			continue
		}
		payload := c.cacheGet(id)
		if payload == nil {
			misses = append(misses, id)
			continue
		}
		result[id] = FetchedEdges(payload.Edges)
		if prefetch.IsIncluded() {
			for _, e := range payload.Prefetched {
				if _, ok := result[e.Node.CsID]; ok {
					continue
				}
				if requested.Contains(e.Node.CsID) {
					result[e.Node.CsID] = FetchedEdges(e)
				} else {
					result[e.Node.CsID] = PrefetchedEdges(e, id)
				}
			}
		}
	}

	if len(misses) == 0 {
		return result, nil
	}

	fetched, err := c.inner.MaybeFetchManyEdges(ctx, misses, prefetch)
	if err != nil {
		return nil, err
	}

	// route write-backs: direct fetches anchor their own payload,
	// prefetched edges ride along in their anchor's payload
	payloads := make(map[ChangesetID]*cachePayload, len(misses))
	for _, f := range fetched {
		if f.IsPrefetched() {
			continue
		}
		payloads[f.Node.CsID] = &cachePayload{Edges: f.ChangesetEdges}
	}
	for id, f := range fetched {
		if _, ok := result[id]; !ok {
			result[id] = f
		}
		if !f.IsPrefetched() {
			continue
		}
		if p, ok := payloads[f.AnchorCsID]; ok {
			p.Prefetched = append(p.Prefetched, f.ChangesetEdges)
		}
	}
	for id, payload := range payloads {
		c.cachePut(id, payload)
	}
	return result, nil
}

func (c *CachingStorage) cacheGet(csID ChangesetID) *cachePayload {
	raw := c.cache.Get(c.cacheKey(csID))
	if raw == nil {
		return nil
	}
	data, ok := raw.(string)
	if !ok {
		return nil
	}
	payload := &cachePayload{}
	if err := json.Unmarshal([]byte(data), payload); err != nil || payload.Edges == nil {
		// a corrupt entry behaves like a miss
		_ = c.cache.Delete(c.cacheKey(csID))
		return nil
	}
	return payload
}

func (c *CachingStorage) cachePut(csID ChangesetID, payload *cachePayload) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Warn("Failed to serialize commit graph cache entry for %s: %v", csID, err)
		return
	}
	if err := c.cache.Put(c.cacheKey(csID), string(data), c.ttl); err != nil {
		// a cache outage must never fail the traversal
		log.Warn("Failed to cache commit graph entry for %s: %v", csID, err)
	}
}

// FindByPrefix implements Storage. Prefix resolution is an interactive
// tooling path and always hits the inner storage.
func (c *CachingStorage) FindByPrefix(ctx context.Context, hexPrefix string, limit int) ([]ChangesetID, error) {
	return c.inner.FindByPrefix(ctx, hexPrefix, limit)
}

// FetchChildren implements Storage. Children grow as the graph grows, so
// the reverse index is never cached.
func (c *CachingStorage) FetchChildren(ctx context.Context, csID ChangesetID) ([]ChangesetID, error) {
	return c.inner.FetchChildren(ctx, csID)
}
