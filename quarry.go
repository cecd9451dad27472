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


package quarry

import (
	"context"
	"log/slog"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/finder"
	"github.com/poiesic/quarry/finders"
	"github.com/poiesic/quarry/ingestion"
	"github.com/poiesic/quarry/storage"
	"github.com/poiesic/quarry/storage/badger"
	"github.com/poiesic/quarry/testtree"
)

// Database ties the storage, the finders and the test tree collector together.
type Database struct {
	repos     *badger.Repositories
	builds    *finders.BuildFinder
	tests     *finders.TestOccurrenceFinder
	collector *testtree.Collector
	config    *Config
	logger    *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	config *Config
	logger *slog.Logger
}

// WithConfig sets the database configuration.
// Default is DefaultConfig().
func WithConfig(cfg *Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.config = cfg
	}
}

// WithLogger sets the logger shared by every component.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens the database stored at filePath. An empty path opens an
// in-memory database that is discarded on Close.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.config == nil {
		options.config = DefaultConfig()
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	cfg := options.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, err := badger.OpenBackend(filePath, filePath == "", badger.WithLogger(options.logger))
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	finderOpts := []finder.Option{
		finder.WithDefaultPageSize(cfg.DefaultPageSize),
		finder.WithDefaultLookupLimit(cfg.DefaultLookupLimit),
		finder.WithLogger(options.logger),
	}
	builds, err := finders.NewBuildFinder(repos.Builds, finderOpts...)
	if err != nil {
		repos.Close()
		return nil, err
	}
	tests, err := finders.NewTestOccurrenceFinder(repos.Tests, builds, finderOpts...)
	if err != nil {
		repos.Close()
		return nil, err
	}

	collector, err := testtree.NewCollector(tests,
		testtree.WithPoolSize(cfg.TreePoolSize),
		testtree.WithLogger(options.logger),
	)
	if err != nil {
		repos.Close()
		return nil, err
	}

	return &Database{
		repos:     repos,
		builds:    builds,
		tests:     tests,
		collector: collector,
		config:    cfg,
		logger:    options.logger,
	}, nil
}

func (db *Database) Close() error {
	db.collector.Release()
	if err := db.repos.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) BuildRepository() storage.BuildRepository {
	return db.repos.Builds
}

func (db *Database) TestOccurrenceRepository() storage.TestOccurrenceRepository {
	return db.repos.Tests
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.repos.Checkpoints
}

func (db *Database) BuildFinder() *finders.BuildFinder {
	return db.builds
}

func (db *Database) TestOccurrenceFinder() *finders.TestOccurrenceFinder {
	return db.tests
}

func (db *Database) TestTreeCollector() *testtree.Collector {
	return db.collector
}

// FindBuilds returns the page of builds matching a build locator.
func (db *Database) FindBuilds(ctx context.Context, text string) (*finder.PagedResult[*core.Build], error) {
	return db.builds.FindItems(ctx, text)
}

// FindTestOccurrences returns the page of test occurrences matching a locator.
func (db *Database) FindTestOccurrences(ctx context.Context, text string) (*finder.PagedResult[*core.TestOccurrence], error) {
	return db.tests.FindItems(ctx, text)
}

// TestTree builds the sliced test tree for a tree locator.
func (db *Database) TestTree(ctx context.Context, text string) (*testtree.Result, error) {
	return db.collector.Collect(ctx, text)
}

// NewImporter creates an importer writing into this database. Pool and batch
// sizes come from the configuration; opts are applied after them.
func (db *Database) NewImporter(opts ...ingestion.Option) (*ingestion.Importer, error) {
	base := []ingestion.Option{
		ingestion.WithPoolSize(db.config.ImportPoolSize),
		ingestion.WithBatchSize(db.config.ImportBatchSize),
		ingestion.WithLogger(db.logger),
	}
	return ingestion.NewImporter(db.repos.Builds, db.repos.Tests, db.repos.Checkpoints, append(base, opts...)...)
}
