// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"code.gitea.io/commitgraph/modules/setting"
)

// PrefetchEdge selects which shortcut kind a prefetch walks
type PrefetchEdge int

const (
	// PrefetchEdgeFirstParent walks strictly first-parent history
	PrefetchEdgeFirstParent PrefetchEdge = iota
	// PrefetchEdgeSkipTreeSkewAncestor walks skew ancestors, falling
	// back to the first parent at merge boundaries
	PrefetchEdgeSkipTreeSkewAncestor
)

// PrefetchTarget describes how far and along which shortcut kind to
// prefetch: hops stop once the walk reaches Generation or runs out of
// the Steps budget.
type PrefetchTarget struct {
	Edge       PrefetchEdge
	Generation Generation
	Steps      uint64
}

type prefetchState int

const (
	prefetchNone prefetchState = iota
	prefetchHint
	prefetchInclude
)

// Prefetch is the hint protocol handed to the fetch operations. A Hint
// means the caller believes prefetching helps but does not expect extra
// items in the result; Include means prefetched items are returned to
// the caller too. A Hint is promoted to Include exactly when the caching
// layer determines it can absorb the extra entries cheaply.
type Prefetch struct {
	state  prefetchState
	target PrefetchTarget
}

// PrefetchNone performs no prefetching
func PrefetchNone() Prefetch {
	return Prefetch{}
}

// PrefetchHint hints that prefetching the target may help the ongoing traversal
func PrefetchHint(target PrefetchTarget) Prefetch {
	return Prefetch{state: prefetchHint, target: target}
}

// PrefetchInclude requests that prefetched items be included in the result
func PrefetchInclude(target PrefetchTarget) Prefetch {
	return Prefetch{state: prefetchInclude, target: target}
}

// PrefetchForSkipTreeTraversal hints prefetching for a traversal walking
// skew ancestors down to the given generation. Skew-ancestor chains are
// near-logarithmic, but merge-heavy regions degrade toward following the
// first parent, so the step budget caps fetch amplification.
func PrefetchForSkipTreeTraversal(generation Generation) Prefetch {
	return PrefetchHint(PrefetchTarget{
		Edge:       PrefetchEdgeSkipTreeSkewAncestor,
		Generation: generation,
		Steps:      setting.CommitGraph.SkipTreePrefetchSteps,
	})
}

// PrefetchForP1LinearTraversal hints prefetching for a traversal walking
// first-parent history. Every hop moves exactly one changeset, so larger
// batches stay cheap.
func PrefetchForP1LinearTraversal() Prefetch {
	return PrefetchHint(PrefetchTarget{
		Edge:       PrefetchEdgeFirstParent,
		Generation: FirstGeneration,
		Steps:      setting.CommitGraph.P1LinearPrefetchSteps,
	})
}

// IsActive returns whether this prefetch carries a target at all
func (p Prefetch) IsActive() bool {
	return p.state != prefetchNone
}

// IsIncluded returns whether prefetched items should be returned to the caller
func (p Prefetch) IsIncluded() bool {
	return p.state == prefetchInclude
}

// IncludeHint promotes a Hint to Include. None and Include are unaffected.
func (p Prefetch) IncludeHint() Prefetch {
	if p.state == prefetchHint {
		return Prefetch{state: prefetchInclude, target: p.target}
	}
	return p
}

// Target yields the prefetch target, but only in the Include state: a
// mere hint must never let a caller assume extra data was returned.
func (p Prefetch) Target() (PrefetchTarget, bool) {
	if p.state != prefetchInclude {
		return PrefetchTarget{}, false
	}
	return p.target, true
}

// TargetEdge yields the shortcut kind of the target, Include state only
func (p Prefetch) TargetEdge() (PrefetchEdge, bool) {
	target, ok := p.Target()
	return target.Edge, ok
}
