// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"context"
)

// Storage is the sole persistence boundary for changeset edges. Every
// implementation is scoped to a single repository. Add and AddMany are
// the only mutators; all other operations are read-only.
type Storage interface {
	// RepositoryID returns the repository this storage serves
	RepositoryID() int64

	// Add inserts one changeset's edges. It returns true if the
	// changeset was newly inserted and false if it already existed;
	// "already exists" is a success path, never an error.
	Add(ctx context.Context, edges *ChangesetEdges) (bool, error)

	// AddMany is the bulk variant of Add for backfill, idempotent per
	// element. It fails on an empty batch and returns the count of
	// newly inserted changesets.
	AddMany(ctx context.Context, edges []*ChangesetEdges) (int, error)

	// FetchEdges returns the edges of one changeset, failing with
	// ErrNotFoundChangeset when it is absent from this repository.
	FetchEdges(ctx context.Context, csID ChangesetID) (*ChangesetEdges, error)

	// MaybeFetchEdges is the non-failing variant of FetchEdges,
	// returning nil for an absent changeset.
	MaybeFetchEdges(ctx context.Context, csID ChangesetID) (*ChangesetEdges, error)

	// FetchManyEdges returns the edges of all requested changesets,
	// failing with ErrNotFoundChangeset if any of them is missing.
	// With an Include prefetch the result may contain more entries
	// than requested, each tagged with its anchor id.
	FetchManyEdges(ctx context.Context, csIDs []ChangesetID, prefetch Prefetch) (map[ChangesetID]FetchedChangesetEdges, error)

	// MaybeFetchManyEdges is the permissive counterpart of
	// FetchManyEdges, silently omitting missing changesets.
	MaybeFetchManyEdges(ctx context.Context, csIDs []ChangesetID, prefetch Prefetch) (map[ChangesetID]FetchedChangesetEdges, error)

	// FindByPrefix resolves a hex id prefix to at most limit matching
	// changeset ids, for short-hash resolution.
	FindByPrefix(ctx context.Context, hexPrefix string, limit int) ([]ChangesetID, error)

	// FetchChildren returns all changesets that have csID as a parent
	FetchChildren(ctx context.Context, csID ChangesetID) ([]ChangesetID, error)
}

// ChangesetSequenceEntry is one changeset paired with its per-repository
// insertion sequence number.
type ChangesetSequenceEntry struct {
	CsID ChangesetID
	Seq  int64
}

// BulkStorage is the range-bounded chunk API the bulk fetcher consumes.
// Sequence numbers are assigned at insertion time, monotonically
// increasing per repository and independent of Generation. Ranges are
// half-open [lo, hi). The readFromMaster flag selects the primary over a
// possibly stale read replica.
type BulkStorage interface {
	// RepoBounds returns the [lo, hi) interval of sequence numbers
	// currently present; lo == hi for an empty repository.
	RepoBounds(ctx context.Context, readFromMaster bool) (lo, hi int64, err error)

	// FetchOldestChangesetsInRange returns up to limit entries from the
	// range in ascending sequence order.
	FetchOldestChangesetsInRange(ctx context.Context, lo, hi, limit int64, readFromMaster bool) ([]ChangesetSequenceEntry, error)

	// FetchNewestChangesetsInRange returns up to limit entries from the
	// range in descending sequence order.
	FetchNewestChangesetsInRange(ctx context.Context, lo, hi, limit int64, readFromMaster bool) ([]ChangesetSequenceEntry, error)
}
