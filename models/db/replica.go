// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db

import (
	"context"
)

// GetReplicaEngine returns an engine suitable for reads that may tolerate
// replication lag. It falls back to the primary when no replica is
// configured or when the context already carries an engine (for example
// inside a transaction, which must stay on the primary).
func GetReplicaEngine(ctx context.Context) Engine {
	if e := getExistingEngine(ctx); e != nil {
		return e
	}
	if replica != nil {
		return replica.Context(ctx)
	}
	return x.Context(ctx)
}
