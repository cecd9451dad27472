package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/poiesic/quarry"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/ingestion"
)

var (
	dbPath    = flag.String("db", "./quarry_db", "database directory to seed")
	outPath   = flag.String("out", "", "write JSON lines to this file instead of seeding a database")
	perType   = flag.Int("builds", 50, "builds per build type")
	seed      = flag.Uint64("seed", 1, "random seed")
	batchSize = flag.Int("batch-size", 100, "records written per transaction")
)

var buildTypes = []string{"Core_Build", "Core_Nightly", "Docs_Build"}

var branches = []string{"main", "main", "main", "release/2.x", "feature/search"}

// testNames are the tests every build runs. A few are left without a suite
// or package so the tree has default scopes.
var testNames = func() []string {
	var names []string
	for _, suite := range []string{"unit", "integration"} {
		for _, pkg := range []string{"org.example.auth", "org.example.cart", "org.example.search"} {
			for _, class := range []string{"ServiceTest", "StoreTest"} {
				for _, test := range []string{"create", "update", "remove", "list"} {
					names = append(names, fmt.Sprintf("%s: %s.%s.%s", suite, pkg, class, test))
				}
			}
		}
	}
	return append(names, "SmokeTest.boots", "SmokeTest.serves")
}()

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}

// records returns the synthetic records for a seed. The same seed always
// yields the same records.
func records(seed uint64, perType int) iter.Seq[ingestion.Record] {
	return func(yield func(ingestion.Record) bool) {
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		for n := 1; n <= perType; n++ {
			for i, buildType := range buildTypes {
				started := start.Add(time.Duration(n)*time.Hour + time.Duration(i)*time.Minute)
				build := &core.Build{
					BuildTypeId: buildType,
					Number:      fmt.Sprint(n),
					Branch:      branches[rng.IntN(len(branches))],
					Status:      core.BuildStatusSuccess,
					Pinned:      n%25 == 0,
					StartedAt:   started,
				}

				tests := make([]*core.TestOccurrence, 0, len(testNames))
				var elapsed int64
				for _, name := range testNames {
					occ := &core.TestOccurrence{
						Name:       name,
						Status:     core.TestStatusSuccess,
						DurationMs: rng.Int64N(2000),
					}
					switch roll := rng.IntN(100); {
					case roll < 5:
						occ.Status = core.TestStatusFailure
						occ.Muted = roll == 0
					case roll < 8:
						occ.Status = core.TestStatusIgnored
						occ.DurationMs = 0
					}
					if occ.Status == core.TestStatusFailure && !occ.Muted {
						build.Status = core.BuildStatusFailure
					}
					elapsed += occ.DurationMs
					tests = append(tests, occ)
				}
				build.FinishedAt = started.Add(time.Duration(elapsed) * time.Millisecond)

				if !yield(ingestion.NewRecord(build, tests)) {
					return
				}
			}
		}
	}
}

// writeRecords writes records as JSON lines.
func writeRecords(w io.Writer, source iter.Seq[ingestion.Record]) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for rec := range source {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func seedDatabase(ctx context.Context, path string, source iter.Seq[ingestion.Record]) (*ingestion.Stats, error) {
	db, err := quarry.NewDatabase(path, quarry.WithConfig(quarry.NewConfig(quarry.WithImportBatchSize(*batchSize))))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	importer, err := db.NewImporter()
	if err != nil {
		return nil, err
	}
	defer importer.Release()

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(writeRecords(pw, source))
	}()
	stats, err := importer.Import(ctx, fmt.Sprintf("seeder:%d", *seed), pr)
	pr.Close()
	return stats, err
}

func main() {
	flag.Parse()
	source := records(*seed, *perType)

	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		if err := writeRecords(f, source); err != nil {
			panic(err)
		}
		slog.Info("wrote records", "file", *outPath, "builds", *perType*len(buildTypes))
		return
	}

	stats, err := seedDatabase(context.Background(), *dbPath, source)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded database", "db", *dbPath, "builds", stats.Builds, "tests", stats.Tests, "existing", stats.Existing)
}
