// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package commitgraph

import (
	"fmt"
	"strings"
)

// ErrNotFoundChangeset represents a "changeset does not exist" error,
// returned by the strict fetch variants only.
type ErrNotFoundChangeset struct {
	RepoID int64
	CsIDs  []ChangesetID
}

// IsErrNotFoundChangeset checks if an error is an ErrNotFoundChangeset
func IsErrNotFoundChangeset(err error) bool {
	_, ok := err.(ErrNotFoundChangeset)
	return ok
}

func (err ErrNotFoundChangeset) Error() string {
	ids := make([]string, 0, len(err.CsIDs))
	for _, id := range err.CsIDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("changesets not found in repository %d: %s", err.RepoID, strings.Join(ids, ", "))
}

// ErrInvariantViolated represents a detected inconsistency in the stored
// graph, e.g. an edge whose generation does not exceed its parents'.
// It is surfaced as a hard error rather than silently accepted, since it
// would corrupt skip-tree shortcut correctness.
type ErrInvariantViolated struct {
	CsID   ChangesetID
	Reason string
}

// IsErrInvariantViolated checks if an error is an ErrInvariantViolated
func IsErrInvariantViolated(err error) bool {
	_, ok := err.(ErrInvariantViolated)
	return ok
}

func (err ErrInvariantViolated) Error() string {
	return fmt.Sprintf("commit graph invariant violated for changeset %s: %s", err.CsID, err.Reason)
}
