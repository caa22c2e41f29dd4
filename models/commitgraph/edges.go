// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package commitgraph implements the commit graph storage and ancestry
// index: the data model for a changeset's graph edges, the storage
// contract that persists them, a caching layer over that contract and a
// bulk fetcher streaming whole repositories in insertion order.
package commitgraph

// Generation is the depth of a changeset: 1 + the maximum generation of
// its parents, or FirstGeneration for a root. For every edge the child's
// generation is strictly greater than the parent's, which lets many
// ancestry questions be answered by integer comparison before any graph
// walk.
type Generation uint64

// FirstGeneration is the generation of a changeset with no parents
const FirstGeneration Generation = 1

// ChangesetNode is a changeset id together with its generation
type ChangesetNode struct {
	CsID       ChangesetID `json:"cs_id"`
	Generation Generation  `json:"gen"`
}

// ChangesetEdges is the persisted graph position of one changeset.
// Edges are immutable once written: the graph is append-only and
// rewriting history creates new changesets.
type ChangesetEdges struct {
	Node    ChangesetNode   `json:"node"`
	Parents []ChangesetNode `json:"parents"`

	// SkipTreeParent points to the single parent, or to the common
	// skip-tree ancestor of all parents for a merge. Together with
	// SkipTreeSkewAncestor it forms a skew-binary index over the graph:
	// walking toward the root takes a logarithmic number of hops.
	SkipTreeParent       *ChangesetNode `json:"skip_tree_parent,omitempty"`
	SkipTreeSkewAncestor *ChangesetNode `json:"skip_tree_skew_ancestor,omitempty"`

	// P1LinearSkewAncestor is a second, simpler shortcut strictly
	// following first-parent history.
	P1LinearSkewAncestor *ChangesetNode `json:"p1_linear_skew_ancestor,omitempty"`
}

// P1Parent returns the first parent, or nil for a root
func (e *ChangesetEdges) P1Parent() *ChangesetNode {
	if len(e.Parents) == 0 {
		return nil
	}
	return &e.Parents[0]
}

// ParentIDs returns the ordered parent changeset ids
func (e *ChangesetEdges) ParentIDs() []ChangesetID {
	ids := make([]ChangesetID, 0, len(e.Parents))
	for _, p := range e.Parents {
		ids = append(ids, p.CsID)
	}
	return ids
}

// IsMerge returns whether the changeset has more than one parent
func (e *ChangesetEdges) IsMerge() bool {
	return len(e.Parents) > 1
}

// FetchedChangesetEdges tags edges returned from storage with how they
// were obtained. Directly requested edges are cached under their own id;
// edges fetched as a side effect of prefetching are cached alongside the
// anchor id's entry instead, so that a remote cache does not grow an
// independent tiny entry for every skip-tree shortcut that is rarely
// queried on its own. The storage layer underneath treats both uniformly.
type FetchedChangesetEdges struct {
	*ChangesetEdges

	// AnchorCsID is the id whose fetch caused these edges to be loaded;
	// zero when the edges were requested directly.
	AnchorCsID ChangesetID
}

// FetchedEdges wraps directly requested edges
func FetchedEdges(edges *ChangesetEdges) FetchedChangesetEdges {
	return FetchedChangesetEdges{ChangesetEdges: edges}
}

// PrefetchedEdges wraps edges loaded as a side effect of resolving anchor
func PrefetchedEdges(edges *ChangesetEdges, anchor ChangesetID) FetchedChangesetEdges {
	return FetchedChangesetEdges{ChangesetEdges: edges, AnchorCsID: anchor}
}

// IsPrefetched returns whether the edges were a prefetch side effect
func (f FetchedChangesetEdges) IsPrefetched() bool {
	return !f.AnchorCsID.IsZero()
}
