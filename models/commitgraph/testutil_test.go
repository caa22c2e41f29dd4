// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph_test

import (
	"testing"

	"code.gitea.io/commitgraph/models/commitgraph"
	"code.gitea.io/commitgraph/models/db"

	"github.com/stretchr/testify/require"
)

func mkID(b byte) commitgraph.ChangesetID {
	return commitgraph.MustID([]byte{b})
}

func node(b byte, gen commitgraph.Generation) commitgraph.ChangesetNode {
	return commitgraph.ChangesetNode{CsID: mkID(b), Generation: gen}
}

func nodePtr(b byte, gen commitgraph.Generation) *commitgraph.ChangesetNode {
	n := node(b, gen)
	return &n
}

// seedLinearChain inserts the chain c1 <- c2 <- ... <- cn with ids
// mkID(1) .. mkID(n), computing all shortcut pointers, and returns the
// ids in chain order.
func seedLinearChain(t *testing.T, storage commitgraph.Storage, n int) []commitgraph.ChangesetID {
	t.Helper()
	ids := make([]commitgraph.ChangesetID, 0, n)
	var parents []commitgraph.ChangesetID
	for i := 1; i <= n; i++ {
		id := mkID(byte(i))
		edges, err := commitgraph.BuildEdges(db.DefaultContext, storage, id, parents)
		require.NoError(t, err)
		_, err = storage.Add(db.DefaultContext, edges)
		require.NoError(t, err)
		ids = append(ids, id)
		parents = []commitgraph.ChangesetID{id}
	}
	return ids
}

// addChangeset builds and inserts one changeset with the given parents
func addChangeset(t *testing.T, storage commitgraph.Storage, id commitgraph.ChangesetID, parents ...commitgraph.ChangesetID) *commitgraph.ChangesetEdges {
	t.Helper()
	edges, err := commitgraph.BuildEdges(db.DefaultContext, storage, id, parents)
	require.NoError(t, err)
	_, err = storage.Add(db.DefaultContext, edges)
	require.NoError(t, err)
	return edges
}
