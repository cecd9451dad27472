package quarry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/finder"
	"github.com/poiesic/quarry/ingestion"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.BuildRepository())
		assert.NotNil(t, db.TestOccurrenceRepository())
		assert.NotNil(t, db.CheckpointRepository())
		assert.NotNil(t, db.BuildFinder())
		assert.NotNil(t, db.TestOccurrenceFinder())
		assert.NotNil(t, db.TestTreeCollector())
		assert.NotNil(t, db.logger)
	})

	t.Run("in memory", func(t *testing.T) {
		db, err := NewDatabase("")
		require.NoError(t, err)
		assert.NoError(t, db.Close())
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error with invalid config", func(t *testing.T) {
		db, err := NewDatabase("", WithConfig(NewConfig(WithImportBatchSize(0))))
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}

func TestDatabase_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	db, err := NewDatabase(dir)
	require.NoError(t, err)
	_, err = db.BuildRepository().AddBuilds(ctx, &core.Build{
		BuildTypeId: "Core",
		Number:      "1",
		Status:      core.BuildStatusSuccess,
		StartedAt:   time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDatabase(dir)
	require.NoError(t, err)
	defer db.Close()

	build, err := db.BuildFinder().FindItem(ctx, "buildType:Core,number:1")
	require.NoError(t, err)
	assert.Equal(t, "1", build.Number)
}

// importFixture imports three Core builds and one Docs build, each with two tests.
func importFixture(t *testing.T, db *Database) {
	t.Helper()
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var lines []string
	add := func(buildType string, n int, status core.BuildStatus, failing string) {
		build := &core.Build{
			BuildTypeId: buildType,
			Number:      fmt.Sprint(n),
			Branch:      "main",
			Status:      status,
			StartedAt:   started.Add(time.Duration(len(lines)) * time.Hour),
		}
		var tests []*core.TestOccurrence
		for _, name := range []string{"unit: org.example.LoginTest.ok", "unit: org.example.LoginTest.bad"} {
			status := core.TestStatusSuccess
			if name == failing {
				status = core.TestStatusFailure
			}
			tests = append(tests, &core.TestOccurrence{Name: name, Status: status, DurationMs: 10})
		}
		line, err := json.Marshal(ingestion.NewRecord(build, tests))
		require.NoError(t, err)
		lines = append(lines, string(line))
	}
	add("Core", 1, core.BuildStatusSuccess, "")
	add("Core", 2, core.BuildStatusFailure, "unit: org.example.LoginTest.bad")
	add("Core", 3, core.BuildStatusFailure, "unit: org.example.LoginTest.bad")
	add("Docs", 1, core.BuildStatusSuccess, "")

	imp, err := db.NewImporter()
	require.NoError(t, err)
	defer imp.Release()

	stats, err := imp.Import(context.Background(), "fixture", strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.Equal(t, 4, stats.Builds)
	require.Equal(t, 8, stats.Tests)
}

func TestDatabase_Queries(t *testing.T) {
	ctx := context.Background()
	db, err := NewDatabase("", WithConfig(NewConfig(
		WithDefaultPageSize(2),
		WithImportBatchSize(1),
		WithImportPoolSize(1),
	)))
	require.NoError(t, err)
	defer db.Close()
	importFixture(t, db)

	t.Run("builds use the configured page size", func(t *testing.T) {
		page, err := db.FindBuilds(ctx, "buildType:Core")
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "3", page.Items[0].Number)
		assert.Equal(t, "2", page.Items[1].Number)
	})

	t.Run("failed tests of failed builds", func(t *testing.T) {
		page, err := db.FindTestOccurrences(ctx, "build:(buildType:Core,status:FAILURE,count:any),status:FAILURE,count:any")
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		for _, occ := range page.Items {
			assert.Equal(t, "unit: org.example.LoginTest.bad", occ.Name)
		}
	})

	t.Run("tree", func(t *testing.T) {
		result, err := db.TestTree(ctx, "build:(buildType:Core,count:any),scopeType:class")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Builds)
		assert.Equal(t, 6, result.Tests)

		root := result.Nodes[0]
		assert.Equal(t, 6, root.Counters().Total)
		assert.Equal(t, 2, root.Counters().Failed)
		last := result.Nodes[len(result.Nodes)-1]
		assert.Equal(t, "LoginTest", last.Scope().Name)
	})

	t.Run("help", func(t *testing.T) {
		_, err := db.FindBuilds(ctx, "$help")
		var locErr *finder.LocatorError
		require.ErrorAs(t, err, &locErr)
		assert.ErrorIs(t, err, finder.ErrHelpRequested)
		assert.Contains(t, locErr.Help(), "buildType")
	})
}

func TestDatabase_NewImporterOptions(t *testing.T) {
	db, err := NewDatabase("")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.NewImporter(ingestion.WithRetry(0, 0))
	assert.ErrorIs(t, err, ingestion.ErrInvalidMaxAttempts)
}
