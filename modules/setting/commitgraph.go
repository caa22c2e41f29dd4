// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"code.gitea.io/commitgraph/modules/log"

	"gopkg.in/ini.v1"
)

// CommitGraph holds the commit graph traversal tuning knobs. The step
// budgets cap fetch amplification of prefetch in pathological graphs;
// they are tuning constants and not load-bearing for correctness.
var CommitGraph = struct {
	SkipTreePrefetchSteps uint64 `ini:"SKIP_TREE_PREFETCH_STEPS"`
	P1LinearPrefetchSteps uint64 `ini:"P1_LINEAR_PREFETCH_STEPS"`
	BulkFetchChunkSize    int64  `ini:"BULK_FETCH_CHUNK_SIZE"`
}{
	SkipTreePrefetchSteps: 32,
	P1LinearPrefetchSteps: 128,
	BulkFetchChunkSize:    MaxResponseItems,
}

// MaxResponseItems is the default and maximum page size for range queries
const MaxResponseItems = 1000

func loadCommitGraphFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("commit_graph")
	if err := sec.MapTo(&CommitGraph); err != nil {
		log.Fatal("Failed to map CommitGraph settings: %v", err)
	}
	if CommitGraph.BulkFetchChunkSize <= 0 || CommitGraph.BulkFetchChunkSize > MaxResponseItems {
		CommitGraph.BulkFetchChunkSize = MaxResponseItems
	}
}
