// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package unittest provides the database harness for model tests: an
// on-disk throwaway SQLite database with all registered tables synced.
package unittest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"code.gitea.io/commitgraph/models/db"
	"code.gitea.io/commitgraph/modules/log"
	"code.gitea.io/commitgraph/modules/setting"

	_ "github.com/mattn/go-sqlite3" // sqlite is the test database driver
)

// MainTest should be called by every package's TestMain that touches the
// database: it sets up a fresh SQLite database, syncs all registered
// models and tears everything down after the run.
func MainTest(m *testing.M) {
	log.SetLevel(log.WARN)
	setting.Init("")

	tmpDir, err := os.MkdirTemp("", "commitgraph-test-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to create temp dir: %v\n", err)
		os.Exit(1)
	}

	setting.Database.Type = "sqlite3"
	setting.Database.Path = filepath.Join(tmpDir, "commitgraph.db")
	setting.Database.Timeout = 500

	if err := db.InitEngine(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to create test engine: %v\n", err)
		os.Exit(1)
	}
	if err := db.SyncAllTables(); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to sync tables: %v\n", err)
		os.Exit(1)
	}

	exitStatus := m.Run()

	db.UnsetDefaultEngine()
	_ = os.RemoveAll(tmpDir)
	os.Exit(exitStatus)
}

// PrepareTestDatabase empties every table so each test starts from a
// clean graph.
func PrepareTestDatabase() error {
	e := db.GetMasterEngine()
	tables, err := e.DBMetas()
	if err != nil {
		return err
	}
	for _, table := range tables {
		if _, err := e.Exec(fmt.Sprintf("DELETE FROM %s", table.Name)); err != nil {
			return err
		}
	}
	return nil
}
