// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"context"

	"code.gitea.io/commitgraph/models/db"
	"code.gitea.io/commitgraph/modules/setting"
)

// BulkFetcher streams every changeset of a repository in sequence order,
// for export, backfill and verification tools that must see the whole
// graph without traversing from known heads.
//
// Streams are chunked: each chunk is one self-contained range query, and
// the cursor advances past the last sequence number seen, so re-querying
// never replays already-yielded rows even when concurrent inserts land
// mid-stream (new rows always receive sequence numbers beyond any
// already-consumed sub-range, never inside one).
type BulkFetcher struct {
	storage BulkStorage
}

// NewBulkFetcher creates a bulk fetcher over the given storage
func NewBulkFetcher(storage BulkStorage) *BulkFetcher {
	return &BulkFetcher{storage: storage}
}

// RepoBounds returns the half-open [lo, hi) sequence interval currently present
func (f *BulkFetcher) RepoBounds(ctx context.Context, readFromMaster bool) (lo, hi int64, err error) {
	return f.storage.RepoBounds(ctx, readFromMaster)
}

func chunkSizeOrDefault(chunkSize int64) int64 {
	if chunkSize <= 0 {
		return setting.CommitGraph.BulkFetchChunkSize
	}
	return chunkSize
}

// OldestFirst yields every changeset with a sequence number in [lo, hi)
// in ascending order. Returning an error from fn stops the stream early.
// An empty range yields nothing without issuing a query; an empty chunk
// ends the stream. Recording the last-seen sequence number and calling
// again with a fresh range resumes the stream, which is the canonical
// backfill pattern.
func (f *BulkFetcher) OldestFirst(ctx context.Context, lo, hi, chunkSize int64, readFromMaster bool, fn func(ChangesetSequenceEntry) error) error {
	chunkSize = chunkSizeOrDefault(chunkSize)
	for lo < hi {
		select {
		case <-ctx.Done():
			return db.ErrCancelledf("oldest-first stream cancelled at seq %d", lo)
		default:
		}

		entries, err := f.storage.FetchOldestChangesetsInRange(ctx, lo, hi, chunkSize, readFromMaster)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for _, entry := range entries {
			if err := fn(entry); err != nil {
				return err
			}
		}
		lo = entries[len(entries)-1].Seq + 1
	}
	return nil
}

// NewestFirst is the descending counterpart of OldestFirst: it yields
// the range in decreasing sequence order, advancing the upper bound down
// past the minimum sequence number seen after each chunk.
func (f *BulkFetcher) NewestFirst(ctx context.Context, lo, hi, chunkSize int64, readFromMaster bool, fn func(ChangesetSequenceEntry) error) error {
	chunkSize = chunkSizeOrDefault(chunkSize)
	for lo < hi {
		select {
		case <-ctx.Done():
			return db.ErrCancelledf("newest-first stream cancelled at seq %d", hi)
		default:
		}

		entries, err := f.storage.FetchNewestChangesetsInRange(ctx, lo, hi, chunkSize, readFromMaster)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		for _, entry := range entries {
			if err := fn(entry); err != nil {
				return err
			}
		}
		hi = entries[len(entries)-1].Seq
	}
	return nil
}
