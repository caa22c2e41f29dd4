// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Commitgraph is the commit graph storage service of a source control
// server: it persists the ancestry index of every repository and offers
// export, backfill and verification tooling over it.
package main

import (
	"os"

	"code.gitea.io/commitgraph/cmd"
	"code.gitea.io/commitgraph/modules/log"

	"github.com/urfave/cli/v2"
)

// Version holds the current version, set at build time
var Version = "development"

func main() {
	app := cli.NewApp()
	app.Name = "commitgraph"
	app.Usage = "Commit graph storage and ancestry index"
	app.Version = Version
	app.EnableBashCompletion = true
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Value:   "custom/conf/app.ini",
			Usage:   "Custom configuration file path",
		},
	}
	app.Commands = []*cli.Command{
		cmd.CmdExport,
		cmd.CmdBackfill,
		cmd.CmdDoctor,
		cmd.CmdMigrate,
	}
	app.DefaultCommand = cmd.CmdExport.Name

	if err := app.Run(os.Args); err != nil {
		log.Fatal("Failed to run with %s: %v", os.Args, err)
	}
}
