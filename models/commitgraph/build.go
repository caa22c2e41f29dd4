// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"context"
	"fmt"
)

// BuildEdges computes the full edge record for a new changeset whose
// parents are already present in the graph: its generation, its
// skip-tree parent (the single parent, or the common skip-tree ancestor
// of all parents for a merge) and both skew-binary shortcut ancestors.
// A missing parent surfaces as ErrInvariantViolated, since inserting the
// child anyway would corrupt the index.
func BuildEdges(ctx context.Context, storage Storage, csID ChangesetID, parents []ChangesetID) (*ChangesetEdges, error) {
	parentEdges, err := storage.MaybeFetchManyEdges(ctx, parents, PrefetchNone())
	if err != nil {
		return nil, err
	}

	edges := &ChangesetEdges{
		Node:    ChangesetNode{CsID: csID, Generation: FirstGeneration},
		Parents: make([]ChangesetNode, 0, len(parents)),
	}
	for _, p := range parents {
		pe, ok := parentEdges[p]
		if !ok {
			return nil, ErrInvariantViolated{
				CsID:   csID,
				Reason: fmt.Sprintf("parent %s is not in the graph", p),
			}
		}
		edges.Parents = append(edges.Parents, pe.Node)
		if pe.Node.Generation+1 > edges.Node.Generation {
			edges.Node.Generation = pe.Node.Generation + 1
		}
	}

	if err := buildSkipTreePointers(ctx, storage, edges); err != nil {
		return nil, err
	}
	if err := buildP1LinearPointer(ctx, storage, edges); err != nil {
		return nil, err
	}
	return edges, nil
}

func buildSkipTreePointers(ctx context.Context, storage Storage, edges *ChangesetEdges) error {
	switch len(edges.Parents) {
	case 0:
		return nil
	case 1:
		edges.SkipTreeParent = &edges.Parents[0]
	default:
		// the skip-tree parent of a merge is the common skip-tree
		// ancestor of all its parents; merges of disjoint histories
		// have none
		lca := &edges.Parents[0]
		for i := 1; i < len(edges.Parents) && lca != nil; i++ {
			var err error
			lca, err = SkipTreeLowestCommonAncestor(ctx, storage, lca.CsID, edges.Parents[i].CsID)
			if err != nil {
				return err
			}
		}
		edges.SkipTreeParent = lca
	}

	if edges.SkipTreeParent == nil {
		return nil
	}
	skew, err := skewAncestor(ctx, storage, *edges.SkipTreeParent, skipTreeChain{})
	if err != nil {
		return err
	}
	edges.SkipTreeSkewAncestor = skew
	return nil
}

func buildP1LinearPointer(ctx context.Context, storage Storage, edges *ChangesetEdges) error {
	p1 := edges.P1Parent()
	if p1 == nil {
		return nil
	}
	skew, err := skewAncestor(ctx, storage, *p1, p1LinearChain{})
	if err != nil {
		return err
	}
	edges.P1LinearSkewAncestor = skew
	return nil
}

// chain abstracts which shortcut structure a skew ancestor is computed
// over: the skip tree or strict first-parent history.
type chain interface {
	parent(e *ChangesetEdges) *ChangesetNode
	skew(e *ChangesetEdges) *ChangesetNode
}

type skipTreeChain struct{}

func (skipTreeChain) parent(e *ChangesetEdges) *ChangesetNode { return e.SkipTreeParent }
func (skipTreeChain) skew(e *ChangesetEdges) *ChangesetNode   { return e.SkipTreeSkewAncestor }

type p1LinearChain struct{}

func (p1LinearChain) parent(e *ChangesetEdges) *ChangesetNode { return e.P1Parent() }
func (p1LinearChain) skew(e *ChangesetEdges) *ChangesetNode   { return e.P1LinearSkewAncestor }

// skewAncestor computes the skew-binary ancestor for a child whose chain
// parent is p: when p's skew ancestor and that node's own skew ancestor
// are equidistant in generation, the child's shortcut doubles past both,
// otherwise it points at p itself. This keeps every walk toward the root
// logarithmic in the distance travelled.
func skewAncestor(ctx context.Context, storage Storage, p ChangesetNode, c chain) (*ChangesetNode, error) {
	pEdges, err := storage.FetchEdges(ctx, p.CsID)
	if err != nil {
		return nil, err
	}
	sa1 := c.skew(pEdges)
	if sa1 == nil {
		return &p, nil
	}
	sa1Edges, err := storage.FetchEdges(ctx, sa1.CsID)
	if err != nil {
		return nil, err
	}
	sa2 := c.skew(sa1Edges)
	if sa2 != nil && p.Generation-sa1.Generation == sa1.Generation-sa2.Generation {
		return sa2, nil
	}
	return &p, nil
}
