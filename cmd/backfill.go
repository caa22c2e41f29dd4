// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"code.gitea.io/commitgraph/models/commitgraph"
	"code.gitea.io/commitgraph/modules/log"

	"github.com/urfave/cli/v2"
)

// CmdBackfill represents the backfill sub-command
var CmdBackfill = &cli.Command{
	Name:        "backfill",
	Usage:       "Import an exported commit graph stream into a repository",
	Description: "Reads the tab-separated stream produced by export and inserts every changeset, recomputing generations and skip-tree shortcuts. Inserts are idempotent, so a partially imported stream may simply be replayed.",
	Action:      runBackfill,
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:     "repo-id",
			Usage:    "Repository to import into",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "input",
			Usage: `Stream file to read ("-" for stdin)`,
			Value: "-",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Changesets inserted per batch",
			Value: 100,
		},
	},
}

func runBackfill(c *cli.Context) error {
	ctx := c.Context
	if err := initDB(ctx, c); err != nil {
		return err
	}

	input := io.Reader(os.Stdin)
	if name := c.String("input"); name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	storage := commitgraph.NewSQLStorage(c.Int64("repo-id"))
	batchSize := c.Int("batch-size")
	total := 0

	var batch []*commitgraph.ChangesetEdges
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := storage.AddMany(ctx, batch)
		if err != nil {
			return err
		}
		total += inserted
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 2 {
			return fmt.Errorf("malformed stream at line %d", line)
		}
		csID, err := commitgraph.NewIDFromString(fields[1])
		if err != nil {
			return fmt.Errorf("malformed changeset id at line %d: %w", line, err)
		}
		var parents []commitgraph.ChangesetID
		if len(fields) > 2 && fields[2] != "" {
			for _, p := range strings.Fields(fields[2]) {
				parentID, err := commitgraph.NewIDFromString(p)
				if err != nil {
					return fmt.Errorf("malformed parent id at line %d: %w", line, err)
				}
				parents = append(parents, parentID)
			}
		}

		// parents precede children in an oldest-first export, so any
		// pending batch containing them must land first
		if len(parents) > 0 {
			if err := flush(); err != nil {
				return err
			}
		}
		edges, err := commitgraph.BuildEdges(ctx, storage, csID, parents)
		if err != nil {
			return err
		}
		batch = append(batch, edges)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	log.Info("Backfill inserted %d changesets into repository %d", total, c.Int64("repo-id"))
	return nil
}
