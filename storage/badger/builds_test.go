package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepositories(t *testing.T) *Repositories {
	t.Helper()
	repos, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })
	return repos
}

func addBuilds(t *testing.T, repo storage.BuildRepository, keys ...[2]string) []*core.Build {
	t.Helper()
	started := time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Microsecond)
	builds := make([]*core.Build, len(keys))
	for i, key := range keys {
		builds[i] = &core.Build{
			BuildTypeId: key[0],
			Number:      key[1],
			Status:      core.BuildStatusSuccess,
			StartedAt:   started.Add(time.Duration(i) * time.Minute),
		}
	}
	added, err := repo.AddBuilds(context.Background(), builds...)
	require.NoError(t, err)
	return added
}

func collect[T any](t *testing.T, seq func(yield func(T, error) bool)) []T {
	t.Helper()
	var out []T
	for item, err := range seq {
		require.NoError(t, err)
		out = append(out, item)
	}
	return out
}

func buildNumbers(builds []*core.Build) []string {
	out := make([]string, len(builds))
	for i, b := range builds {
		out[i] = b.BuildTypeId + "#" + b.Number
	}
	return out
}

func TestBuildBasics(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	added := addBuilds(t, repos.Builds, [2]string{"Core", "1"})
	require.Len(t, added, 1)
	require.NotZero(t, added[0].Id)

	retrieved, err := repos.Builds.GetBuild(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, added[0], retrieved)

	_, err = repos.Builds.GetBuild(ctx, added[0].Id+100)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	builds, err := repos.Builds.GetBuilds(ctx, added[0].Id, added[0].Id+100)
	require.NoError(t, err)
	assert.Len(t, builds, 1)
}

func TestAddBuilds_Duplicate(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	addBuilds(t, repos.Builds, [2]string{"Core", "1"})

	_, err := repos.Builds.AddBuilds(ctx, &core.Build{BuildTypeId: "Core", Number: "1", Status: core.BuildStatusFailure})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Same number in another build type is fine
	addBuilds(t, repos.Builds, [2]string{"Docs", "1"})

	// Duplicates inside one batch are rejected too
	_, err = repos.Builds.AddBuilds(ctx,
		&core.Build{BuildTypeId: "Core", Number: "2", Status: core.BuildStatusSuccess},
		&core.Build{BuildTypeId: "Core", Number: "2", Status: core.BuildStatusSuccess})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	found, err := repos.Builds.FindBuildsByNumber(ctx, "Core", "2")
	require.NoError(t, err)
	assert.Empty(t, found, "failed batch must not be stored")
}

func TestScanBuilds(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	addBuilds(t, repos.Builds,
		[2]string{"Core", "1"},
		[2]string{"Docs", "1"},
		[2]string{"Core", "2"},
		[2]string{"Core", "3"},
		[2]string{"Docs", "2"},
	)

	t.Run("all builds newest first", func(t *testing.T) {
		builds := collect(t, repos.Builds.ScanBuilds(ctx, ""))
		assert.Equal(t, []string{"Docs#2", "Core#3", "Core#2", "Docs#1", "Core#1"}, buildNumbers(builds))
	})

	t.Run("one build type", func(t *testing.T) {
		builds := collect(t, repos.Builds.ScanBuilds(ctx, "Core"))
		assert.Equal(t, []string{"Core#3", "Core#2", "Core#1"}, buildNumbers(builds))
	})

	t.Run("build type prefix does not match", func(t *testing.T) {
		builds := collect(t, repos.Builds.ScanBuilds(ctx, "Cor"))
		assert.Empty(t, builds)
	})

	t.Run("early stop", func(t *testing.T) {
		var seen int
		for _, err := range repos.Builds.ScanBuilds(ctx, "") {
			require.NoError(t, err)
			seen++
			if seen == 2 {
				break
			}
		}
		assert.Equal(t, 2, seen)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		var gotErr error
		for _, err := range repos.Builds.ScanBuilds(cancelled, "") {
			if err != nil {
				gotErr = err
				break
			}
		}
		assert.ErrorIs(t, gotErr, context.Canceled)
	})
}

func TestFindBuildsByNumber(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	addBuilds(t, repos.Builds,
		[2]string{"Core", "10"},
		[2]string{"Docs", "10"},
		[2]string{"Core", "1"},
	)

	found, err := repos.Builds.FindBuildsByNumber(ctx, "", "10")
	require.NoError(t, err)
	assert.Equal(t, []string{"Docs#10", "Core#10"}, buildNumbers(found))

	found, err = repos.Builds.FindBuildsByNumber(ctx, "Core", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Core#1"}, buildNumbers(found))

	found, err = repos.Builds.FindBuildsByNumber(ctx, "", "100")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestDeleteBuilds(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	added := addBuilds(t, repos.Builds, [2]string{"Core", "1"}, [2]string{"Core", "2"})

	require.NoError(t, repos.Builds.DeleteBuilds(ctx, added[0].Id))

	_, err := repos.Builds.GetBuild(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	builds := collect(t, repos.Builds.ScanBuilds(ctx, "Core"))
	assert.Equal(t, []string{"Core#2"}, buildNumbers(builds))

	found, err := repos.Builds.FindBuildsByNumber(ctx, "Core", "1")
	require.NoError(t, err)
	assert.Empty(t, found)

	err = repos.Builds.DeleteBuilds(ctx, added[0].Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
