package ingestion

import (
	"bytes"
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
	"github.com/poiesic/quarry/storage/badger"
)

func setupTestRepositories(t *testing.T) *badger.Repositories {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func newTestImporter(t *testing.T, repos *badger.Repositories, opts ...Option) *Importer {
	t.Helper()
	imp, err := NewImporter(repos.Builds, repos.Tests, repos.Checkpoints, opts...)
	require.NoError(t, err)
	t.Cleanup(imp.Release)
	return imp
}

var started = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// recordLine returns a JSON line for build number n of buildType with the given tests.
func recordLine(t *testing.T, buildType string, n int, tests ...string) string {
	t.Helper()
	build := &core.Build{
		BuildTypeId: buildType,
		Number:      fmt.Sprint(n),
		Branch:      "main",
		Status:      core.BuildStatusSuccess,
		StartedAt:   started.Add(time.Duration(n) * time.Minute),
		FinishedAt:  started.Add(time.Duration(n)*time.Minute + 30*time.Second),
	}
	occurrences := make([]*core.TestOccurrence, len(tests))
	for i, name := range tests {
		occurrences[i] = &core.TestOccurrence{Name: name, Status: core.TestStatusSuccess, DurationMs: int64(i)}
	}
	line, err := json.Marshal(NewRecord(build, occurrences))
	require.NoError(t, err)
	return string(line)
}

func countBuilds(t *testing.T, repos *badger.Repositories) int {
	t.Helper()
	n := 0
	for _, err := range repos.Builds.ScanBuilds(context.Background(), "") {
		require.NoError(t, err)
		n++
	}
	return n
}

func TestImport(t *testing.T) {
	repos := setupTestRepositories(t)
	imp := newTestImporter(t, repos)
	ctx := context.Background()

	input := strings.Join([]string{
		recordLine(t, "Core", 1, "unit: a.A.one", "unit: a.A.two"),
		"",
		recordLine(t, "Core", 2, "unit: a.A.one"),
	}, "\n")

	stats, err := imp.Import(ctx, "builds.jsonl", strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, &Stats{Lines: 3, Builds: 2, Tests: 3}, stats)

	builds, err := repos.Builds.FindBuildsByNumber(ctx, "Core", "1")
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, "main", builds[0].Branch)
	assert.Equal(t, started.Add(time.Minute), builds[0].StartedAt)

	var names []string
	for test, err := range repos.Tests.ScanBuildTestOccurrences(ctx, builds[0].Id) {
		require.NoError(t, err)
		names = append(names, test.Name)
		assert.Equal(t, core.IDFromContent(test.Name), test.TestNameId)
	}
	assert.Equal(t, []string{"unit: a.A.one", "unit: a.A.two"}, names)

	checkpoint, err := repos.Checkpoints.LoadCheckpoint(ctx, "builds.jsonl")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, int64(3), checkpoint.Position)

	t.Run("same source resumes after the checkpoint", func(t *testing.T) {
		more := input + "\n" + recordLine(t, "Core", 3)
		stats, err := imp.Import(ctx, "builds.jsonl", strings.NewReader(more))
		require.NoError(t, err)
		assert.Equal(t, &Stats{Lines: 4, Resumed: 3, Builds: 1}, stats)
	})

	t.Run("other source skips stored builds", func(t *testing.T) {
		stats, err := imp.Import(ctx, "copy.jsonl", strings.NewReader(input))
		require.NoError(t, err)
		assert.Equal(t, &Stats{Lines: 3, Existing: 2}, stats)
		assert.Equal(t, 3, countBuilds(t, repos))
	})
}

func TestImport_InvalidLine(t *testing.T) {
	repos := setupTestRepositories(t)
	imp := newTestImporter(t, repos)
	ctx := context.Background()

	lines := []string{
		recordLine(t, "Core", 1, "unit: a.A.one"),
		`{"build":{"buildType":"Core","number":"2","status":"EXPLODED","startedAt":"2025-06-01T12:00:00Z"}}`,
		recordLine(t, "Core", 3),
	}

	_, err := imp.Import(ctx, "bad.jsonl", strings.NewReader(strings.Join(lines, "\n")))
	require.ErrorIs(t, err, ErrInvalidRecord)
	assert.ErrorIs(t, err, core.ErrInvalidBuildStatus)
	assert.Contains(t, err.Error(), "bad.jsonl:2:")

	assert.Equal(t, 1, countBuilds(t, repos))
	checkpoint, err := repos.Checkpoints.LoadCheckpoint(ctx, "bad.jsonl")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, int64(1), checkpoint.Position)

	lines[1] = recordLine(t, "Core", 2)
	stats, err := imp.Import(ctx, "bad.jsonl", strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, &Stats{Lines: 3, Resumed: 1, Builds: 2}, stats)
	assert.Equal(t, 3, countBuilds(t, repos))
}

func TestImport_ConcurrentBatches(t *testing.T) {
	repos := setupTestRepositories(t)
	imp := newTestImporter(t, repos, WithBatchSize(2), WithPoolSize(4))
	ctx := context.Background()

	var lines []string
	for n := 1; n <= 25; n++ {
		lines = append(lines, recordLine(t, "Core", n, fmt.Sprintf("unit: a.A.t%d", n)))
	}

	stats, err := imp.Import(ctx, "many.jsonl", strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, 25, stats.Builds)
	assert.Equal(t, 25, stats.Tests)
	assert.Equal(t, 25, countBuilds(t, repos))

	checkpoint, err := repos.Checkpoints.LoadCheckpoint(ctx, "many.jsonl")
	require.NoError(t, err)
	assert.Equal(t, int64(25), checkpoint.Position)
}

func TestImportFile(t *testing.T) {
	repos := setupTestRepositories(t)
	var progress bytes.Buffer
	imp := newTestImporter(t, repos, WithProgress(&progress))

	path := filepath.Join(t.TempDir(), "builds.jsonl")
	content := recordLine(t, "Docs", 1, "lint: docs.Spelling.check") + "\n" + recordLine(t, "Docs", 2) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	stats, err := imp.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Builds)
	assert.Contains(t, progress.String(), "2/2 lines")
	assert.Contains(t, progress.String(), "2 builds, 1 tests, 0 existing")

	progress.Reset()
	_, err = imp.ImportFile(context.Background(), path)
	require.NoError(t, err)
	assert.Contains(t, progress.String(), "2/2 lines (100.0%), 2 resumed")

	_, err = imp.ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseRecord(t *testing.T) {
	valid := `{"build":{"buildType":"Core","number":"7","status":"failure","startedAt":"2025-06-01T12:00:00+02:00"},` +
		`"tests":[{"name":"unit: a.A.one","status":"IGNORED","muted":true}]}`

	e, err := parseRecord([]byte(valid))
	require.NoError(t, err)
	assert.Equal(t, core.BuildStatusFailure, e.build.Status)
	assert.Equal(t, time.UTC, e.build.StartedAt.Location())
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), e.build.StartedAt)
	assert.True(t, e.build.FinishedAt.IsZero())
	require.Len(t, e.tests, 1)
	assert.True(t, e.tests[0].Muted)
	assert.Equal(t, core.TestStatusIgnored, e.tests[0].Status)

	tests := []struct {
		name     string
		line     string
		expected error
	}{
		{"not json", `build=7`, ErrInvalidRecord},
		{"missing number", `{"build":{"buildType":"Core","status":"SUCCESS","startedAt":"2025-06-01T12:00:00Z"}}`, core.ErrEmptyBuildNumber},
		{"missing start", `{"build":{"buildType":"Core","number":"1","status":"SUCCESS"}}`, core.ErrInvalidTimestamp},
		{"bad test status", `{"build":{"buildType":"Core","number":"1","status":"SUCCESS","startedAt":"2025-06-01T12:00:00Z"},"tests":[{"name":"x","status":"SLOW"}]}`, core.ErrInvalidTestStatus},
		{"negative duration", `{"build":{"buildType":"Core","number":"1","status":"SUCCESS","startedAt":"2025-06-01T12:00:00Z"},"tests":[{"name":"x","status":"SUCCESS","durationMs":-1}]}`, core.ErrNegativeDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRecord([]byte(tt.line))
			assert.ErrorIs(t, err, ErrInvalidRecord)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestNewImporter(t *testing.T) {
	repos := setupTestRepositories(t)

	_, err := NewImporter(nil, repos.Tests, repos.Checkpoints)
	assert.ErrorIs(t, err, ErrBuildRepositoryRequired)

	_, err = NewImporter(repos.Builds, nil, repos.Checkpoints)
	assert.ErrorIs(t, err, ErrTestRepositoryRequired)

	_, err = NewImporter(repos.Builds, repos.Tests, nil)
	assert.ErrorIs(t, err, ErrCheckpointRepositoryRequired)

	_, err = NewImporter(repos.Builds, repos.Tests, repos.Checkpoints, WithBatchSize(0))
	assert.Error(t, err)

	_, err = NewImporter(repos.Builds, repos.Tests, repos.Checkpoints, WithRetry(0, time.Millisecond))
	assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
}
