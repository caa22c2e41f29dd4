// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"context"
	"errors"
	"fmt"

	"code.gitea.io/commitgraph/models/db"
	"code.gitea.io/commitgraph/modules/container"
	"code.gitea.io/commitgraph/modules/log"

	"xorm.io/builder"
)

// batchSize bounds the number of ids per IN query
const batchSize = 500

// SQLStorage is the database-backed Storage and BulkStorage for one
// repository.
type SQLStorage struct {
	repoID int64
}

var (
	_ Storage     = &SQLStorage{}
	_ BulkStorage = &SQLStorage{}
)

// NewSQLStorage creates the storage for the given repository
func NewSQLStorage(repoID int64) *SQLStorage {
	return &SQLStorage{repoID: repoID}
}

// RepositoryID implements Storage
func (s *SQLStorage) RepositoryID() int64 {
	return s.repoID
}

func validateEdges(edges *ChangesetEdges) error {
	want := FirstGeneration
	for _, p := range edges.Parents {
		if p.Generation+1 > want {
			want = p.Generation + 1
		}
	}
	if edges.Node.Generation != want {
		return ErrInvariantViolated{
			CsID:   edges.Node.CsID,
			Reason: fmt.Sprintf("generation is %d, expected %d", edges.Node.Generation, want),
		}
	}
	return nil
}

// Add implements Storage
func (s *SQLStorage) Add(ctx context.Context, edges *ChangesetEdges) (bool, error) {
	inserted, err := s.AddMany(ctx, []*ChangesetEdges{edges})
	return inserted > 0, err
}

// AddMany implements Storage. Each changeset is inserted in its own
// transaction together with its sequence allocation, so concurrent
// inserts of the same changeset are resolved by the unique constraint:
// one caller wins, both observe success.
func (s *SQLStorage) AddMany(ctx context.Context, edges []*ChangesetEdges) (int, error) {
	if len(edges) == 0 {
		return 0, errors.New("commitgraph: AddMany requires a non-empty batch")
	}
	inserted := 0
	for _, e := range edges {
		if err := validateEdges(e); err != nil {
			return inserted, err
		}
		ok, err := s.addOne(ctx, e)
		if err != nil {
			return inserted, err
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

func (s *SQLStorage) addOne(ctx context.Context, edges *ChangesetEdges) (bool, error) {
	inserted := false
	err := db.WithTx(ctx, func(ctx context.Context) error {
		exist, err := db.GetEngine(ctx).Exist(&ChangesetEdge{RepoID: s.repoID, CsID: edges.Node.CsID.String()})
		if err != nil {
			return err
		}
		if exist {
			return nil
		}

		seq, err := db.GetNextResourceIndex(ctx, "changeset_sequence", s.repoID)
		if err != nil {
			return err
		}

		row, parents := rowsFromEdges(s.repoID, seq, edges)
		if err := db.Insert(ctx, row); err != nil {
			return err
		}
		for _, p := range parents {
			if err := db.Insert(ctx, p); err != nil {
				return err
			}
		}
		inserted = true
		return nil
	})
	if err != nil && db.IsErrDupeKey(err) {
		// a concurrent caller inserted the same changeset first
		log.Trace("changeset %s already inserted concurrently in repo %d", edges.Node.CsID, s.repoID)
		return false, nil
	}
	return inserted, err
}

// FetchEdges implements Storage
func (s *SQLStorage) FetchEdges(ctx context.Context, csID ChangesetID) (*ChangesetEdges, error) {
	edges, err := s.MaybeFetchEdges(ctx, csID)
	if err != nil {
		return nil, err
	}
	if edges == nil {
		return nil, ErrNotFoundChangeset{RepoID: s.repoID, CsIDs: []ChangesetID{csID}}
	}
	return edges, nil
}

// MaybeFetchEdges implements Storage
func (s *SQLStorage) MaybeFetchEdges(ctx context.Context, csID ChangesetID) (*ChangesetEdges, error) {
	fetched, err := s.MaybeFetchManyEdges(ctx, []ChangesetID{csID}, PrefetchNone())
	if err != nil {
		return nil, err
	}
	if e, ok := fetched[csID]; ok {
		return e.ChangesetEdges, nil
	}
	return nil, nil
}

// FetchManyEdges implements Storage
func (s *SQLStorage) FetchManyEdges(ctx context.Context, csIDs []ChangesetID, prefetch Prefetch) (map[ChangesetID]FetchedChangesetEdges, error) {
	fetched, err := s.MaybeFetchManyEdges(ctx, csIDs, prefetch)
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
		return nil, ErrNotFoundChangeset{RepoID: s.repoID, CsIDs: missing}
	}
	return fetched, nil
}

// MaybeFetchManyEdges implements Storage
func (s *SQLStorage) MaybeFetchManyEdges(ctx context.Context, csIDs []ChangesetID, prefetch Prefetch) (map[ChangesetID]FetchedChangesetEdges, error) {
	result := make(map[ChangesetID]FetchedChangesetEdges, len(csIDs))
	if len(csIDs) == 0 {
		return result, nil
	}

	wanted := container.SetOf(csIDs...)
	direct, err := s.fetchEdgeRecords(ctx, wanted.Values())
	if err != nil {
		return nil, err
	}
	for id, edges := range direct {
		result[id] = FetchedEdges(edges)
	}

	if target, ok := prefetch.Target(); ok {
		if err := s.prefetchInto(ctx, result, target); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// prefetchInto walks the target's shortcut kind from every directly
// fetched edge, hop by hop, batching each hop's lookups into one query.
// Every edge it loads is tagged with the anchor id it was walked from.
func (s *SQLStorage) prefetchInto(ctx context.Context, result map[ChangesetID]FetchedChangesetEdges, target PrefetchTarget) error {
	// anchor of the walk for each frontier node
	frontier := make(map[ChangesetID]ChangesetID, len(result))
	known := make(map[ChangesetID]*ChangesetEdges, len(result))
	for id, e := range result {
		frontier[id] = id
		known[id] = e.ChangesetEdges
	}

	for step := uint64(0); step < target.Steps && len(frontier) > 0; step++ {
		next := make(map[ChangesetID]ChangesetID, len(frontier))
		var missing []ChangesetID
		for id, anchor := range frontier {
			edges := known[id]
			if edges.Node.Generation <= target.Generation {
				continue
			}
			hop := prefetchHop(edges, target)
			if hop == nil {
				continue
			}
			if _, ok := next[hop.CsID]; ok {
				continue
			}
			next[hop.CsID] = anchor
			if _, ok := known[hop.CsID]; !ok {
				missing = append(missing, hop.CsID)
			}
		}

		if len(missing) > 0 {
			loaded, err := s.fetchEdgeRecords(ctx, missing)
			if err != nil {
				return err
			}
			for id, edges := range loaded {
				known[id] = edges
			}
		}

		frontier = make(map[ChangesetID]ChangesetID, len(next))
		for id, anchor := range next {
			edges, ok := known[id]
			if !ok {
				// shortcut points outside the stored graph
				continue
			}
			if _, ok := result[id]; !ok {
				result[id] = PrefetchedEdges(edges, anchor)
			}
			frontier[id] = anchor
		}
	}
	return nil
}

// prefetchHop picks the next node of a prefetch walk, or nil at a root
func prefetchHop(edges *ChangesetEdges, target PrefetchTarget) *ChangesetNode {
	if target.Edge == PrefetchEdgeSkipTreeSkewAncestor {
		if sa := edges.SkipTreeSkewAncestor; sa != nil && sa.Generation >= target.Generation {
			return sa
		}
		// merge-heavy regions degrade toward following p1
	}
	return edges.P1Parent()
}

// fetchEdgeRecords loads edge rows and their parent rows for the ids
func (s *SQLStorage) fetchEdgeRecords(ctx context.Context, csIDs []ChangesetID) (map[ChangesetID]*ChangesetEdges, error) {
	result := make(map[ChangesetID]*ChangesetEdges, len(csIDs))
	for lo := 0; lo < len(csIDs); lo += batchSize {
		hi := min(lo+batchSize, len(csIDs))
		hexIDs := make([]string, 0, hi-lo)
		for _, id := range csIDs[lo:hi] {
			hexIDs = append(hexIDs, id.String())
		}

		rows := make([]*ChangesetEdge, 0, len(hexIDs))
		if err := db.GetEngine(ctx).
			Where("repo_id = ?", s.repoID).
			In("cs_id", hexIDs).
			Find(&rows); err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			continue
		}

		found := make([]string, 0, len(rows))
		for _, row := range rows {
			found = append(found, row.CsID)
		}
		parentRows := make([]*ChangesetParent, 0, len(found))
		if err := db.GetEngine(ctx).
			Where("repo_id = ?", s.repoID).
			In("cs_id", found).
			Asc("cs_id", "position").
			Find(&parentRows); err != nil {
			return nil, err
		}
		parentsByCs := make(map[string][]*ChangesetParent, len(found))
		for _, p := range parentRows {
			parentsByCs[p.CsID] = append(parentsByCs[p.CsID], p)
		}

		for _, row := range rows {
			result[MustIDFromString(row.CsID)] = row.toEdges(parentsByCs[row.CsID])
		}
	}
	return result, nil
}

// FindByPrefix implements Storage
func (s *SQLStorage) FindByPrefix(ctx context.Context, hexPrefix string, limit int) ([]ChangesetID, error) {
	if !IsValidIDHexPrefix(hexPrefix) {
		return nil, fmt.Errorf("invalid changeset id prefix: %q", hexPrefix)
	}
	if limit <= 0 {
		return nil, nil
	}
	var hexIDs []string
	if err := db.GetEngine(ctx).Table("changeset_edge").
		Select("cs_id").
		Where(builder.Eq{"repo_id": s.repoID}).
		And(builder.Expr("cs_id LIKE ?", hexPrefix+"%")).
		Asc("cs_id").
		Limit(limit).
		Find(&hexIDs); err != nil {
		return nil, err
	}
	ids := make([]ChangesetID, 0, len(hexIDs))
	for _, h := range hexIDs {
		ids = append(ids, MustIDFromString(h))
	}
	return ids, nil
}

// FetchChildren implements Storage
func (s *SQLStorage) FetchChildren(ctx context.Context, csID ChangesetID) ([]ChangesetID, error) {
	var hexIDs []string
	if err := db.GetEngine(ctx).Table("changeset_parent").
		Select("cs_id").
		Where(builder.Eq{"repo_id": s.repoID, "parent_id": csID.String()}).
		Asc("cs_id").
		Find(&hexIDs); err != nil {
		return nil, err
	}
	children := make([]ChangesetID, 0, len(hexIDs))
	for _, h := range hexIDs {
		children = append(children, MustIDFromString(h))
	}
	return children, nil
}

// RepoBounds implements BulkStorage
func (s *SQLStorage) RepoBounds(ctx context.Context, readFromMaster bool) (lo, hi int64, err error) {
	var bounds struct {
		Lo int64
		Hi int64
	}
	has, err := s.engine(ctx, readFromMaster).
		SQL("SELECT COALESCE(MIN(seq), 0) AS lo, COALESCE(MAX(seq), 0) AS hi FROM changeset_edge WHERE repo_id = ?", s.repoID).
		Get(&bounds)
	if err != nil {
		return 0, 0, err
	}
	if !has || bounds.Hi == 0 {
		return 0, 0, nil
	}
	return bounds.Lo, bounds.Hi + 1, nil
}

// FetchOldestChangesetsInRange implements BulkStorage
func (s *SQLStorage) FetchOldestChangesetsInRange(ctx context.Context, lo, hi, limit int64, readFromMaster bool) ([]ChangesetSequenceEntry, error) {
	return s.fetchRange(ctx, lo, hi, limit, readFromMaster, true)
}

// FetchNewestChangesetsInRange implements BulkStorage
func (s *SQLStorage) FetchNewestChangesetsInRange(ctx context.Context, lo, hi, limit int64, readFromMaster bool) ([]ChangesetSequenceEntry, error) {
	return s.fetchRange(ctx, lo, hi, limit, readFromMaster, false)
}

func (s *SQLStorage) fetchRange(ctx context.Context, lo, hi, limit int64, readFromMaster, ascending bool) ([]ChangesetSequenceEntry, error) {
	if lo >= hi || limit <= 0 {
		return nil, nil
	}
	sess := s.engine(ctx, readFromMaster).Table("changeset_edge").
		Select("cs_id, seq").
		Where(builder.Eq{"repo_id": s.repoID}).
		And(builder.Gte{"seq": lo}).
		And(builder.Lt{"seq": hi}).
		Limit(int(limit))
	if ascending {
		sess = sess.Asc("seq")
	} else {
		sess = sess.Desc("seq")
	}

	var rows []struct {
		CsID string
		Seq  int64
	}
	if err := sess.Find(&rows); err != nil {
		return nil, err
	}
	entries := make([]ChangesetSequenceEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ChangesetSequenceEntry{CsID: MustIDFromString(row.CsID), Seq: row.Seq})
	}
	return entries, nil
}

func (s *SQLStorage) engine(ctx context.Context, readFromMaster bool) db.Engine {
	if readFromMaster {
		return db.GetEngine(ctx)
	}
	return db.GetReplicaEngine(ctx)
}
