// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefetchHintDoesNotLeakTarget(t *testing.T) {
	hint := PrefetchHint(PrefetchTarget{Edge: PrefetchEdgeSkipTreeSkewAncestor, Generation: 5, Steps: 32})
	assert.True(t, hint.IsActive())
	assert.False(t, hint.IsIncluded())

	_, ok := hint.Target()
	assert.False(t, ok, "a hint must never let a caller assume extra data was returned")
	_, ok = hint.TargetEdge()
	assert.False(t, ok)
}

func TestPrefetchIncludeHint(t *testing.T) {
	target := PrefetchTarget{Edge: PrefetchEdgeFirstParent, Generation: FirstGeneration, Steps: 128}

	promoted := PrefetchHint(target).IncludeHint()
	assert.True(t, promoted.IsIncluded())
	got, ok := promoted.Target()
	assert.True(t, ok)
	assert.Equal(t, target, got)

	edge, ok := promoted.TargetEdge()
	assert.True(t, ok)
	assert.Equal(t, PrefetchEdgeFirstParent, edge)

	// None stays None, Include stays Include
	assert.False(t, PrefetchNone().IncludeHint().IsActive())
	assert.True(t, PrefetchInclude(target).IncludeHint().IsIncluded())
}

func TestPrefetchPlanners(t *testing.T) {
	skipTree := PrefetchForSkipTreeTraversal(7).IncludeHint()
	target, ok := skipTree.Target()
	assert.True(t, ok)
	assert.Equal(t, PrefetchEdgeSkipTreeSkewAncestor, target.Edge)
	assert.Equal(t, Generation(7), target.Generation)
	assert.EqualValues(t, 32, target.Steps)

	p1 := PrefetchForP1LinearTraversal().IncludeHint()
	target, ok = p1.Target()
	assert.True(t, ok)
	assert.Equal(t, PrefetchEdgeFirstParent, target.Edge)
	assert.Equal(t, FirstGeneration, target.Generation)
	assert.EqualValues(t, 128, target.Steps)
}

func TestFetchedChangesetEdgesTagging(t *testing.T) {
	edges := &ChangesetEdges{Node: ChangesetNode{CsID: MustID([]byte{1}), Generation: FirstGeneration}}
	anchor := MustID([]byte{2})

	assert.False(t, FetchedEdges(edges).IsPrefetched())
	prefetched := PrefetchedEdges(edges, anchor)
	assert.True(t, prefetched.IsPrefetched())
	assert.Equal(t, anchor, prefetched.AnchorCsID)
}
