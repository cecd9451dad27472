// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/quarry"
	"github.com/poiesic/quarry/finder"
	"github.com/poiesic/quarry/ingestion"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

func pageSizeFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "page-size",
		Usage: "Items returned when the locator has no count (0 keeps the default)",
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "quarry",
		Usage: "Query builds and tests with locators",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import builds and tests from JSON lines files",
				ArgsUsage: "FILE...",
				Action:    importCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of records written per transaction",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of batches written concurrently (0 uses half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for a batch hitting a transaction conflict",
						Value: 5,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 10 * time.Millisecond,
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress to stderr",
						Value: true,
					},
				},
			},
			{
				Name:      "builds",
				Usage:     "List builds matching a build locator",
				ArgsUsage: "LOCATOR",
				Action:    buildsCommand,
				Flags:     []cli.Flag{dbFlag(), pageSizeFlag()},
			},
			{
				Name:      "tests",
				Usage:     "List test occurrences matching a test occurrence locator",
				ArgsUsage: "LOCATOR",
				Action:    testsCommand,
				Flags:     []cli.Flag{dbFlag(), pageSizeFlag()},
			},
			{
				Name:      "tree",
				Usage:     "Show the test tree for a tree locator",
				ArgsUsage: "LOCATOR",
				Action:    treeCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of per-build trees built concurrently (0 uses half the CPUs)",
					},
				},
			},
		},
	}
}

func openDatabase(c *cli.Context, opts ...quarry.ConfigOption) (*quarry.Database, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if size := c.Int("page-size"); size != 0 {
		opts = append(opts, quarry.WithDefaultPageSize(size))
	}
	db, err := quarry.NewDatabase(dbPath,
		quarry.WithConfig(quarry.NewConfig(opts...)),
		quarry.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func locatorArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("exactly one locator is required, use %q to list its dimensions", "$help")
	}
	return c.Args().First(), nil
}

// printHelp writes the dimension list of a help request. It reports whether
// err was one.
func printHelp(w io.Writer, err error) bool {
	var locErr *finder.LocatorError
	if !errors.Is(err, finder.ErrHelpRequested) || !errors.As(err, &locErr) {
		return false
	}
	fmt.Fprint(w, locErr.Help())
	return true
}

func importCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}
	if c.Int("batch-size") <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfgOpts := []quarry.ConfigOption{quarry.WithImportBatchSize(c.Int("batch-size"))}
	if workers := c.Int("workers"); workers > 0 {
		cfgOpts = append(cfgOpts, quarry.WithImportPoolSize(workers))
	}
	db, err := openDatabase(c, cfgOpts...)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []ingestion.Option{ingestion.WithRetry(c.Int("max-retries"), c.Duration("retry-delay"))}
	if c.Bool("progress") {
		opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	}
	importer, err := db.NewImporter(opts...)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}
	defer importer.Release()

	ctx := context.Background()
	for _, path := range c.Args().Slice() {
		stats, err := importer.ImportFile(ctx, path)
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "%s: %d lines (%d resumed), %d builds, %d tests, %d existing\n",
			path, stats.Lines, stats.Resumed, stats.Builds, stats.Tests, stats.Existing)
	}
	return nil
}

func buildsCommand(c *cli.Context) error {
	text, err := locatorArg(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	page, err := db.FindBuilds(context.Background(), text)
	if err != nil {
		if printHelp(c.App.Writer, err) {
			return nil
		}
		return err
	}

	w := c.App.Writer
	for _, b := range page.Items {
		pinned := ""
		if b.Pinned {
			pinned = " pinned"
		}
		fmt.Fprintf(w, "%d\t%s\t#%s\t%s\t%s\t%s%s\n",
			b.Id, b.BuildTypeId, b.Number, b.Status, b.Branch, b.StartedAt.Format(time.RFC3339), pinned)
	}
	printPageSummary(w, page.Len(), page.Start, page.LookupLimitReached)
	return nil
}

func testsCommand(c *cli.Context) error {
	text, err := locatorArg(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	page, err := db.FindTestOccurrences(context.Background(), text)
	if err != nil {
		if printHelp(c.App.Writer, err) {
			return nil
		}
		return err
	}

	w := c.App.Writer
	for _, t := range page.Items {
		muted := ""
		if t.Muted {
			muted = " muted"
		}
		fmt.Fprintf(w, "%d\tbuild %d\t%s\t%s\t%s%s\n",
			t.Id, t.BuildId, t.Status, t.Duration(), t.Name, muted)
	}
	printPageSummary(w, page.Len(), page.Start, page.LookupLimitReached)
	return nil
}

func printPageSummary(w io.Writer, n, start int, truncated bool) {
	fmt.Fprintf(w, "%d items", n)
	if start > 0 {
		fmt.Fprintf(w, " starting at %d", start)
	}
	if truncated {
		fmt.Fprint(w, " (lookup limit reached)")
	}
	fmt.Fprintln(w)
}

func treeCommand(c *cli.Context) error {
	text, err := locatorArg(c)
	if err != nil {
		return err
	}
	var opts []quarry.ConfigOption
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, quarry.WithTreePoolSize(workers))
	}
	db, err := openDatabase(c, opts...)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := db.TestTree(context.Background(), text)
	if err != nil {
		if printHelp(c.App.Writer, err) {
			return nil
		}
		return err
	}

	w := c.App.Writer
	if len(result.Nodes) == 0 {
		return nil
	}
	top := result.Nodes[0].Depth()
	for _, n := range result.Nodes {
		counters := n.Counters()
		fmt.Fprintf(w, "%s%s [%s] total=%d passed=%d failed=%d ignored=%d muted=%d duration=%s\n",
			strings.Repeat("  ", n.Depth()-top), n.Scope().Name, n.Scope().Type,
			counters.Total, counters.Passed, counters.Failed, counters.Ignored, counters.Muted,
			time.Duration(counters.DurationMs)*time.Millisecond)
	}
	fmt.Fprintf(w, "%d tests in %d builds\n", result.Tests, result.Builds)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
