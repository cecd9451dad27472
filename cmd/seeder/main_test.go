package main

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsAreDeterministic(t *testing.T) {
	var a, b, c bytes.Buffer
	require.NoError(t, writeRecords(&a, records(7, 4)))
	require.NoError(t, writeRecords(&b, records(7, 4)))
	require.NoError(t, writeRecords(&c, records(8, 4)))

	assert.Equal(t, a.String(), b.String())
	assert.NotEqual(t, a.String(), c.String())
	assert.Len(t, strings.Split(strings.TrimSpace(a.String()), "\n"), 4*len(buildTypes))
}

func TestRecords(t *testing.T) {
	recs := slices.Collect(records(1, 2))
	require.Len(t, recs, 2*len(buildTypes))
	for _, rec := range recs {
		assert.NotEmpty(t, rec.Build.StartedAt)
		assert.Len(t, rec.Tests, len(testNames))
	}
}

func TestSeedDatabase(t *testing.T) {
	stats, err := seedDatabase(context.Background(), t.TempDir(), records(1, 3))
	require.NoError(t, err)
	assert.Equal(t, 3*len(buildTypes), stats.Builds)
	assert.Equal(t, 3*len(buildTypes)*len(testNames), stats.Tests)
}
