// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"context"

	"code.gitea.io/commitgraph/modules/container"
)

// SkipTreeAncestor lifts a changeset toward the root of the skip tree
// until its generation is at most targetGen, returning the first node at
// or below that generation, or nil when the walk runs off the root. Skew
// ancestors are taken whenever they do not overshoot, so the walk is
// logarithmic in the generation distance.
func SkipTreeAncestor(ctx context.Context, storage Storage, csID ChangesetID, targetGen Generation) (*ChangesetNode, error) {
	return chainAncestor(ctx, storage, csID, targetGen, skipTreeChain{}, PrefetchForSkipTreeTraversal(targetGen))
}

// P1LinearAncestor lifts a changeset along strict first-parent history
// until its generation is at most targetGen.
func P1LinearAncestor(ctx context.Context, storage Storage, csID ChangesetID, targetGen Generation) (*ChangesetNode, error) {
	return chainAncestor(ctx, storage, csID, targetGen, p1LinearChain{}, PrefetchForP1LinearTraversal())
}

func chainAncestor(ctx context.Context, storage Storage, csID ChangesetID, targetGen Generation, c chain, prefetch Prefetch) (*ChangesetNode, error) {
	fetched, err := storage.FetchManyEdges(ctx, []ChangesetID{csID}, prefetch)
	if err != nil {
		return nil, err
	}
	cur := fetched[csID].ChangesetEdges
	for cur.Node.Generation > targetGen {
		var next *ChangesetNode
		if sa := c.skew(cur); sa != nil && sa.Generation >= targetGen {
			next = sa
		} else {
			next = c.parent(cur)
		}
		if next == nil {
			return nil, nil
		}
		if f, ok := fetched[next.CsID]; ok {
			cur = f.ChangesetEdges
			continue
		}
		fetched, err = storage.FetchManyEdges(ctx, []ChangesetID{next.CsID}, prefetch)
		if err != nil {
			return nil, err
		}
		cur = fetched[next.CsID].ChangesetEdges
	}
	node := cur.Node
	return &node, nil
}

// SkipTreeLowestCommonAncestor returns the lowest common ancestor of two
// changesets in the skip tree, or nil when their histories are disjoint.
// The deeper side is repeatedly lifted to the shallower side's
// generation; at equal generations with distinct nodes both sides step
// one skip-tree hop.
func SkipTreeLowestCommonAncestor(ctx context.Context, storage Storage, a, b ChangesetID) (*ChangesetNode, error) {
	fetched, err := storage.FetchManyEdges(ctx, []ChangesetID{a, b}, PrefetchNone())
	if err != nil {
		return nil, err
	}
	u := fetched[a].Node
	v := fetched[b].Node

	for u.CsID != v.CsID {
		if u.Generation > v.Generation {
			lifted, err := SkipTreeAncestor(ctx, storage, u.CsID, v.Generation)
			if err != nil {
				return nil, err
			}
			if lifted == nil {
				return nil, nil
			}
			u = *lifted
			continue
		}
		if v.Generation > u.Generation {
			lifted, err := SkipTreeAncestor(ctx, storage, v.CsID, u.Generation)
			if err != nil {
				return nil, err
			}
			if lifted == nil {
				return nil, nil
			}
			v = *lifted
			continue
		}

		// equal generations, different nodes: step both
		stepped, err := storage.FetchManyEdges(ctx, []ChangesetID{u.CsID, v.CsID}, PrefetchForSkipTreeTraversal(FirstGeneration))
		if err != nil {
			return nil, err
		}
		up := stepped[u.CsID].SkipTreeParent
		vp := stepped[v.CsID].SkipTreeParent
		if up == nil || vp == nil {
			return nil, nil
		}
		u, v = *up, *vp
	}
	node := u
	return &node, nil
}

// IsAncestor reports whether ancestor lies in the history of descendant.
// The generation invariant prunes the walk: no node older in generation
// than the candidate needs expanding. The skip tree answers most queries
// in logarithmic time; only when the candidate is off the canonical
// chain does the walk widen to a generation-pruned parent frontier.
func IsAncestor(ctx context.Context, storage Storage, ancestor, descendant ChangesetID) (bool, error) {
	if ancestor == descendant {
		return true, nil
	}
	fetched, err := storage.FetchManyEdges(ctx, []ChangesetID{ancestor, descendant}, PrefetchNone())
	if err != nil {
		return false, err
	}
	target := fetched[ancestor].Node
	from := fetched[descendant].Node
	if target.Generation >= from.Generation {
		return false, nil
	}

	// fast path: the candidate sits on the descendant's skip-tree chain
	lifted, err := SkipTreeAncestor(ctx, storage, from.CsID, target.Generation)
	if err != nil {
		return false, err
	}
	if lifted != nil && lifted.CsID == target.CsID {
		return true, nil
	}

	frontier := container.SetOf(from.CsID)
	seen := container.SetOf(from.CsID)
	for len(frontier) > 0 {
		edges, err := storage.FetchManyEdges(ctx, frontier.Values(), PrefetchForSkipTreeTraversal(target.Generation))
		if err != nil {
			return false, err
		}
		next := make(container.Set[ChangesetID], len(frontier))
		for id := range frontier {
			for _, p := range edges[id].Parents {
				if p.CsID == target.CsID {
					return true, nil
				}
				// a node reachable along several paths is expanded once
				if p.Generation > target.Generation && seen.Add(p.CsID) {
					next.Add(p.CsID)
				}
			}
		}
		frontier = next
	}
	return false, nil
}
