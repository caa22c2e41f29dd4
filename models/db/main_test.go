// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db_test

import (
	"testing"

	"code.gitea.io/commitgraph/models/unittest"

	_ "code.gitea.io/commitgraph/models/commitgraph"
)

func TestMain(m *testing.M) {
	unittest.MainTest(m)
}
