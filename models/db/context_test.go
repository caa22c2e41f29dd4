// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db_test

import (
	"context"
	"testing"

	"code.gitea.io/commitgraph/models/commitgraph"
	"code.gitea.io/commitgraph/models/db"
	"code.gitea.io/commitgraph/models/unittest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTransaction(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())
	assert.False(t, db.InTransaction(db.DefaultContext))
	assert.NoError(t, db.WithTx(db.DefaultContext, func(ctx context.Context) error {
		assert.True(t, db.InTransaction(ctx))
		return nil
	}))

	ctx, committer, err := db.TxContext(db.DefaultContext)
	assert.NoError(t, err)
	defer committer.Close()
	assert.True(t, db.InTransaction(ctx))
	assert.NoError(t, db.WithTx(ctx, func(ctx context.Context) error {
		assert.True(t, db.InTransaction(ctx))
		return nil
	}))
}

func TestTxContextReusesTransaction(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())

	ctx, committer, err := db.TxContext(db.DefaultContext)
	assert.NoError(t, err)
	defer committer.Close()

	// a nested TxContext must join the outer transaction, so the inner
	// commit is deferred to the outer committer
	innerCtx, innerCommitter, err := db.TxContext(ctx)
	assert.NoError(t, err)
	assert.True(t, db.InTransaction(innerCtx))
	assert.NoError(t, innerCommitter.Commit())
	assert.NoError(t, innerCommitter.Close())

	assert.NoError(t, committer.Commit())
}

func TestContextHelpers(t *testing.T) {
	require.NoError(t, unittest.PrepareTestDatabase())

	assert.Equal(t, "changeset_sequence", db.TableName(&commitgraph.ChangesetSequence{}))

	assert.NoError(t, db.Insert(db.DefaultContext, &commitgraph.ChangesetSequence{GroupID: 42, MaxIndex: 7}))

	seq := commitgraph.ChangesetSequence{GroupID: 42}
	has, err := db.GetByBean(db.DefaultContext, &seq)
	assert.NoError(t, err)
	assert.True(t, has)
	assert.EqualValues(t, 7, seq.MaxIndex)

	count, err := db.CountByBean(db.DefaultContext, &commitgraph.ChangesetSequence{GroupID: 42})
	assert.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = db.Exec(db.DefaultContext, "DELETE FROM changeset_sequence WHERE group_id = ?", 42)
	assert.NoError(t, err)
	has, err = db.GetByBean(db.DefaultContext, &commitgraph.ChangesetSequence{GroupID: 42})
	assert.NoError(t, err)
	assert.False(t, has)
}
