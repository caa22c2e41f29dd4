// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cmd provides subcommands for the commitgraph binary
package cmd

import (
	"context"

	"code.gitea.io/commitgraph/models/db"
	"code.gitea.io/commitgraph/modules/cache"
	"code.gitea.io/commitgraph/modules/log"
	"code.gitea.io/commitgraph/modules/setting"

	"github.com/urfave/cli/v2"
)

func initDB(ctx context.Context, c *cli.Context) error {
	setting.Init(c.String("config"))
	if err := db.InitEngine(ctx); err != nil {
		return err
	}
	if err := db.SyncAllTables(); err != nil {
		return err
	}
	if err := cache.NewContext(); err != nil {
		log.Warn("Unable to start cache service, continuing without cache: %v", err)
	}
	return nil
}
