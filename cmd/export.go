// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"code.gitea.io/commitgraph/models/commitgraph"
	"code.gitea.io/commitgraph/modules/log"
	"code.gitea.io/commitgraph/modules/setting"

	"github.com/urfave/cli/v2"
)

// CmdExport represents the export sub-command
var CmdExport = &cli.Command{
	Name:        "export",
	Usage:       "Export a repository's commit graph as a resumable stream",
	Description: "Streams every changeset of a repository in insertion-sequence order as tab-separated lines of sequence number, changeset id and parent ids. Record the last printed sequence number and pass it back with --cursor to resume an interrupted export.",
	Action:      runExport,
	Flags: []cli.Flag{
		&cli.Int64Flag{
			Name:     "repo-id",
			Usage:    "Repository to export",
			Required: true,
		},
		&cli.Int64Flag{
			Name:  "cursor",
			Usage: "Resume after this sequence number",
		},
		&cli.Int64Flag{
			Name:  "chunk-size",
			Usage: "Rows fetched per storage round trip",
		},
		&cli.BoolFlag{
			Name:  "newest-first",
			Usage: "Stream in descending sequence order",
		},
		&cli.BoolFlag{
			Name:  "read-from-master",
			Usage: "Read from the primary database instead of a replica",
		},
	},
}

func runExport(c *cli.Context) error {
	ctx := c.Context
	if err := initDB(ctx, c); err != nil {
		return err
	}

	storage := commitgraph.NewSQLStorage(c.Int64("repo-id"))
	fetcher := commitgraph.NewBulkFetcher(storage)
	readFromMaster := c.Bool("read-from-master")

	lo, hi, err := fetcher.RepoBounds(ctx, readFromMaster)
	if err != nil {
		return err
	}
	if cursor := c.Int64("cursor"); cursor > 0 {
		if c.Bool("newest-first") {
			hi = cursor
		} else {
			lo = cursor + 1
		}
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	chunkSize := c.Int64("chunk-size")
	if chunkSize <= 0 {
		chunkSize = setting.CommitGraph.BulkFetchChunkSize
	}

	var pending []commitgraph.ChangesetSequenceEntry
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		ids := make([]commitgraph.ChangesetID, 0, len(pending))
		for _, entry := range pending {
			ids = append(ids, entry.CsID)
		}
		edges, err := storage.FetchManyEdges(ctx, ids, commitgraph.PrefetchNone())
		if err != nil {
			return err
		}
		for _, entry := range pending {
			parents := make([]string, 0, len(edges[entry.CsID].Parents))
			for _, p := range edges[entry.CsID].Parents {
				parents = append(parents, p.CsID.String())
			}
			if _, err := fmt.Fprintf(out, "%d\t%s\t%s\n", entry.Seq, entry.CsID, strings.Join(parents, " ")); err != nil {
				return err
			}
		}
		pending = pending[:0]
		return nil
	}

	collect := func(entry commitgraph.ChangesetSequenceEntry) error {
		pending = append(pending, entry)
		if int64(len(pending)) >= chunkSize {
			return flush()
		}
		return nil
	}

	if c.Bool("newest-first") {
		err = fetcher.NewestFirst(ctx, lo, hi, chunkSize, readFromMaster, collect)
	} else {
		err = fetcher.OldestFirst(ctx, lo, hi, chunkSize, readFromMaster, collect)
	}
	if err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	log.Info("Export of repository %d finished", c.Int64("repo-id"))
	return nil
}
