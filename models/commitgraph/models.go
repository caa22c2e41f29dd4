// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"code.gitea.io/commitgraph/models/db"
)

func init() {
	db.RegisterModel(new(ChangesetEdge))
	db.RegisterModel(new(ChangesetParent))
	db.RegisterModel(new(ChangesetSequence))
}

// ChangesetEdge is the database row of one changeset's graph position.
// Rows are insert-only. The shortcut pointers carry their generations so
// a fetched row yields complete nodes without further lookups.
type ChangesetEdge struct {
	ID         int64  `xorm:"pk autoincr"`
	RepoID     int64  `xorm:"UNIQUE(repo_cs) UNIQUE(repo_seq) NOT NULL"`
	CsID       string `xorm:"UNIQUE(repo_cs) CHAR(64) NOT NULL"`
	Seq        int64  `xorm:"UNIQUE(repo_seq) NOT NULL"`
	Generation int64  `xorm:"NOT NULL"`

	SkipTreeParent          string `xorm:"CHAR(64)"`
	SkipTreeParentGen       int64
	SkipTreeSkewAncestor    string `xorm:"CHAR(64)"`
	SkipTreeSkewAncestorGen int64
	P1LinearSkewAncestor    string `xorm:"CHAR(64)"`
	P1LinearSkewAncestorGen int64
}

// ChangesetParent is one ordered (changeset, parent) row; position 0 is
// the first parent. It doubles as the reverse parent-to-children index.
type ChangesetParent struct {
	ID        int64  `xorm:"pk autoincr"`
	RepoID    int64  `xorm:"UNIQUE(edge) INDEX(parent) NOT NULL"`
	CsID      string `xorm:"UNIQUE(edge) CHAR(64) NOT NULL"`
	Position  int    `xorm:"UNIQUE(edge) NOT NULL"`
	ParentID  string `xorm:"INDEX(parent) CHAR(64) NOT NULL"`
	ParentGen int64  `xorm:"NOT NULL"`
}

// ChangesetSequence allocates per-repository insertion sequence numbers
type ChangesetSequence db.ResourceIndex

// TableName names the sequence allocation table
func (ChangesetSequence) TableName() string {
	return "changeset_sequence"
}

func nodeFromColumns(csID string, gen int64) *ChangesetNode {
	if csID == "" {
		return nil
	}
	return &ChangesetNode{CsID: MustIDFromString(csID), Generation: Generation(gen)}
}

func columnsFromNode(node *ChangesetNode) (string, int64) {
	if node == nil {
		return "", 0
	}
	return node.CsID.String(), int64(node.Generation)
}

// toEdges converts a row and its parent rows (ordered by position) to
// the domain record.
func (row *ChangesetEdge) toEdges(parents []*ChangesetParent) *ChangesetEdges {
	edges := &ChangesetEdges{
		Node: ChangesetNode{
			CsID:       MustIDFromString(row.CsID),
			Generation: Generation(row.Generation),
		},
		Parents: make([]ChangesetNode, 0, len(parents)),
	}
	for _, p := range parents {
		edges.Parents = append(edges.Parents, ChangesetNode{
			CsID:       MustIDFromString(p.ParentID),
			Generation: Generation(p.ParentGen),
		})
	}
	edges.SkipTreeParent = nodeFromColumns(row.SkipTreeParent, row.SkipTreeParentGen)
	edges.SkipTreeSkewAncestor = nodeFromColumns(row.SkipTreeSkewAncestor, row.SkipTreeSkewAncestorGen)
	edges.P1LinearSkewAncestor = nodeFromColumns(row.P1LinearSkewAncestor, row.P1LinearSkewAncestorGen)
	return edges
}

func rowsFromEdges(repoID int64, seq int64, edges *ChangesetEdges) (*ChangesetEdge, []*ChangesetParent) {
	row := &ChangesetEdge{
		RepoID:     repoID,
		CsID:       edges.Node.CsID.String(),
		Seq:        seq,
		Generation: int64(edges.Node.Generation),
	}
	row.SkipTreeParent, row.SkipTreeParentGen = columnsFromNode(edges.SkipTreeParent)
	row.SkipTreeSkewAncestor, row.SkipTreeSkewAncestorGen = columnsFromNode(edges.SkipTreeSkewAncestor)
	row.P1LinearSkewAncestor, row.P1LinearSkewAncestorGen = columnsFromNode(edges.P1LinearSkewAncestor)

	parents := make([]*ChangesetParent, 0, len(edges.Parents))
	for i, p := range edges.Parents {
		parents = append(parents, &ChangesetParent{
			RepoID:    repoID,
			CsID:      row.CsID,
			Position:  i,
			ParentID:  p.CsID.String(),
			ParentGen: int64(p.Generation),
		})
	}
	return row, parents
}
