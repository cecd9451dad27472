package badger

import (
	"context"
	"testing"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNames(tests []*core.TestOccurrence) []string {
	out := make([]string, len(tests))
	for i, test := range tests {
		out[i] = test.Name
	}
	return out
}

func TestTestOccurrenceBasics(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	builds := addBuilds(t, repos.Builds, [2]string{"Core", "1"})

	test := &core.TestOccurrence{
		BuildId:    builds[0].Id,
		Name:       "unit: org.example.LoginTest.testOk",
		Status:     core.TestStatusSuccess,
		DurationMs: 15,
	}
	added, err := repos.Tests.AddTestOccurrences(ctx, test)
	require.NoError(t, err)
	require.NotZero(t, added[0].Id)
	assert.Equal(t, core.IDFromContent(test.Name), added[0].TestNameId)

	retrieved, err := repos.Tests.GetTestOccurrence(ctx, added[0].Id)
	require.NoError(t, err)
	assert.Equal(t, added[0], retrieved)

	_, err = repos.Tests.GetTestOccurrence(ctx, added[0].Id+1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAddTestOccurrences_UnknownBuild(t *testing.T) {
	repos := newTestRepositories(t)

	_, err := repos.Tests.AddTestOccurrences(context.Background(), &core.TestOccurrence{
		BuildId: 42,
		Name:    "orphan",
		Status:  core.TestStatusFailure,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestScanTestOccurrences(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	builds := addBuilds(t, repos.Builds, [2]string{"Core", "1"}, [2]string{"Core", "2"})
	_, err := repos.Tests.AddTestOccurrences(ctx,
		&core.TestOccurrence{BuildId: builds[0].Id, Name: "a", Status: core.TestStatusSuccess},
		&core.TestOccurrence{BuildId: builds[1].Id, Name: "b", Status: core.TestStatusFailure},
		&core.TestOccurrence{BuildId: builds[0].Id, Name: "c", Status: core.TestStatusIgnored},
	)
	require.NoError(t, err)

	all := collect(t, repos.Tests.ScanTestOccurrences(ctx))
	assert.Equal(t, []string{"a", "b", "c"}, testNames(all))

	first := collect(t, repos.Tests.ScanBuildTestOccurrences(ctx, builds[0].Id))
	assert.Equal(t, []string{"a", "c"}, testNames(first))

	second := collect(t, repos.Tests.ScanBuildTestOccurrences(ctx, builds[1].Id))
	assert.Equal(t, []string{"b"}, testNames(second))

	require.NoError(t, repos.Tests.DeleteTestOccurrences(ctx, all[0].Id))
	first = collect(t, repos.Tests.ScanBuildTestOccurrences(ctx, builds[0].Id))
	assert.Equal(t, []string{"c"}, testNames(first))

	assert.ErrorIs(t, repos.Tests.DeleteTestOccurrences(ctx, all[0].Id), storage.ErrNotFound)
}
