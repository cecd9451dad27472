package finders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage/badger"
)

const (
	testOK  = "unit: org.example.LoginTest.ok"
	testBad = "unit: org.example.LoginTest.bad"
	testDoc = "lint: docs.Spelling.check"
)

type fixture struct {
	repos  *badger.Repositories
	builds map[string]*core.Build // keyed by "type#number"
	tests  []*core.TestOccurrence
	bf     *BuildFinder
	tf     *TestOccurrenceFinder
}

// newFixture stores four builds, oldest first:
//
//	Core#100 SUCCESS main      ok SUCCESS, bad FAILURE
//	Core#101 FAILURE main  pin ok SUCCESS, bad FAILURE (muted)
//	Docs#100 FAILURE main      check FAILURE
//	Core#102 SUCCESS release   ok SUCCESS, bad IGNORED
func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { repos.Close() })

	ctx := context.Background()
	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	build := func(buildType, number, branch string, status core.BuildStatus, pinned bool) *core.Build {
		started = started.Add(time.Hour)
		return &core.Build{
			BuildTypeId: buildType,
			Number:      number,
			Branch:      branch,
			Status:      status,
			Pinned:      pinned,
			StartedAt:   started,
			FinishedAt:  started.Add(10 * time.Minute),
		}
	}
	added, err := repos.Builds.AddBuilds(ctx,
		build("Core", "100", "main", core.BuildStatusSuccess, false),
		build("Core", "101", "main", core.BuildStatusFailure, true),
		build("Docs", "100", "main", core.BuildStatusFailure, false),
		build("Core", "102", "release", core.BuildStatusSuccess, false),
	)
	require.NoError(t, err)

	f := &fixture{repos: repos, builds: map[string]*core.Build{}}
	for _, b := range added {
		f.builds[b.BuildTypeId+"#"+b.Number] = b
	}

	occurrence := func(b *core.Build, name string, status core.TestStatus, muted bool) *core.TestOccurrence {
		return &core.TestOccurrence{BuildId: b.Id, Name: name, Status: status, Muted: muted, DurationMs: 5}
	}
	f.tests, err = repos.Tests.AddTestOccurrences(ctx,
		occurrence(f.builds["Core#100"], testOK, core.TestStatusSuccess, false),
		occurrence(f.builds["Core#100"], testBad, core.TestStatusFailure, false),
		occurrence(f.builds["Core#101"], testOK, core.TestStatusSuccess, false),
		occurrence(f.builds["Core#101"], testBad, core.TestStatusFailure, true),
		occurrence(f.builds["Docs#100"], testDoc, core.TestStatusFailure, false),
		occurrence(f.builds["Core#102"], testOK, core.TestStatusSuccess, false),
		occurrence(f.builds["Core#102"], testBad, core.TestStatusIgnored, false),
	)
	require.NoError(t, err)

	f.bf, err = NewBuildFinder(repos.Builds)
	require.NoError(t, err)
	f.tf, err = NewTestOccurrenceFinder(repos.Tests, f.bf)
	require.NoError(t, err)
	return f
}

func buildKeys(builds []*core.Build) []string {
	out := make([]string, len(builds))
	for i, b := range builds {
		out[i] = b.BuildTypeId + "#" + b.Number
	}
	return out
}
