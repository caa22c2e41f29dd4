// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"fmt"
)

// VerifyEdges checks one edge record for internal consistency: the
// generation rule against its recorded parents and the direction of
// every shortcut pointer. It returns a description of each problem
// found, used by the doctor command.
func VerifyEdges(edges *ChangesetEdges) []string {
	var issues []string

	want := FirstGeneration
	for _, p := range edges.Parents {
		if p.Generation >= edges.Node.Generation {
			issues = append(issues, fmt.Sprintf("parent %s generation %d is not below %d", p.CsID, p.Generation, edges.Node.Generation))
		}
		if p.Generation+1 > want {
			want = p.Generation + 1
		}
	}
	if edges.Node.Generation != want {
		issues = append(issues, fmt.Sprintf("generation is %d, expected %d", edges.Node.Generation, want))
	}

	if len(edges.Parents) == 0 {
		if edges.SkipTreeParent != nil {
			issues = append(issues, "root changeset has a skip tree parent")
		}
	} else if len(edges.Parents) == 1 {
		if edges.SkipTreeParent == nil || edges.SkipTreeParent.CsID != edges.Parents[0].CsID {
			issues = append(issues, "skip tree parent of a non-merge must be its parent")
		}
	}

	for name, node := range map[string]*ChangesetNode{
		"skip tree parent":        edges.SkipTreeParent,
		"skip tree skew ancestor": edges.SkipTreeSkewAncestor,
		"p1 linear skew ancestor": edges.P1LinearSkewAncestor,
	} {
		if node != nil && node.Generation >= edges.Node.Generation {
			issues = append(issues, fmt.Sprintf("%s generation %d is not below %d", name, node.Generation, edges.Node.Generation))
		}
	}

	if edges.SkipTreeSkewAncestor != nil && edges.SkipTreeParent != nil &&
		edges.SkipTreeSkewAncestor.Generation > edges.SkipTreeParent.Generation {
		issues = append(issues, "skip tree skew ancestor is above the skip tree parent")
	}
	if edges.P1LinearSkewAncestor != nil && len(edges.Parents) > 0 &&
		edges.P1LinearSkewAncestor.Generation > edges.Parents[0].Generation {
		issues = append(issues, "p1 linear skew ancestor is above the first parent")
	}

	return issues
}
