// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph_test

import (
	"testing"

	"code.gitea.io/commitgraph/models/commitgraph"
	"code.gitea.io/commitgraph/models/db"
	"code.gitea.io/commitgraph/models/unittest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyEdgesCleanGraph(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	storage := commitgraph.NewSQLStorage(1)
	seedMergeGraph(t, storage)

	for i := byte(1); i <= 5; i++ {
		edges, err := storage.FetchEdges(db.DefaultContext, mkID(i))
		require.NoError(t, err)
		assert.Empty(t, commitgraph.VerifyEdges(edges), "c%d", i)
	}
}

func TestVerifyEdgesFindsProblems(t *testing.T) {
	// generation equal to the parent's
	bad := &commitgraph.ChangesetEdges{
		Node:           node(2, 1),
		Parents:        []commitgraph.ChangesetNode{node(1, 1)},
		SkipTreeParent: nodePtr(1, 1),
	}
	assert.NotEmpty(t, commitgraph.VerifyEdges(bad))

	// root carrying a skip tree parent
	bad = &commitgraph.ChangesetEdges{
		Node:           node(1, 1),
		SkipTreeParent: nodePtr(2, 1),
	}
	assert.NotEmpty(t, commitgraph.VerifyEdges(bad))

	// non-merge whose skip tree parent is not its parent
	bad = &commitgraph.ChangesetEdges{
		Node:           node(3, 2),
		Parents:        []commitgraph.ChangesetNode{node(1, 1)},
		SkipTreeParent: nodePtr(2, 1),
	}
	assert.NotEmpty(t, commitgraph.VerifyEdges(bad))

	// skew ancestor above the skip tree parent in the chain
	bad = &commitgraph.ChangesetEdges{
		Node:                 node(4, 4),
		Parents:              []commitgraph.ChangesetNode{node(3, 3)},
		SkipTreeParent:       nodePtr(2, 2),
		SkipTreeSkewAncestor: nodePtr(3, 3),
	}
	assert.Contains(t, commitgraph.VerifyEdges(bad), "skip tree skew ancestor is above the skip tree parent")

	// p1 linear skew ancestor above the first parent
	bad = &commitgraph.ChangesetEdges{
		Node:                 node(4, 4),
		Parents:              []commitgraph.ChangesetNode{node(2, 2), node(3, 3)},
		SkipTreeParent:       nodePtr(1, 1),
		SkipTreeSkewAncestor: nodePtr(1, 1),
		P1LinearSkewAncestor: nodePtr(3, 3),
	}
	assert.Contains(t, commitgraph.VerifyEdges(bad), "p1 linear skew ancestor is above the first parent")
}
