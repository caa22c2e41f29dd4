// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"code.gitea.io/commitgraph/models/db"
	"code.gitea.io/commitgraph/modules/log"
	"code.gitea.io/commitgraph/modules/setting"

	"github.com/urfave/cli/v2"
)

// CmdMigrate represents the migrate sub-command
var CmdMigrate = &cli.Command{
	Name:        "migrate",
	Usage:       "Create or update the database schema",
	Description: "Connects to the configured database and syncs the commit graph tables. Safe to run repeatedly and meant to be run before the first use of a new database.",
	Action:      runMigrate,
}

func runMigrate(c *cli.Context) error {
	setting.Init(c.String("config"))
	if err := db.InitEngine(c.Context); err != nil {
		return err
	}
	if err := db.SyncAllTables(); err != nil {
		return err
	}
	log.Info("Database schema is up to date")
	return nil
}
