package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("pkg.Class.test")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestMarshalUnmarshalBuild(t *testing.T) {
	started := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("finished build", func(t *testing.T) {
		build := &core.Build{
			Id:          7,
			Number:      "1.2.3-rc1",
			BuildTypeId: "Core_Tests",
			Branch:      "refs/heads/main",
			Status:      core.BuildStatusFailure,
			Pinned:      true,
			StartedAt:   started,
			FinishedAt:  started.Add(90 * time.Second),
		}

		decoded, err := UnmarshalBuild(MarshalBuild(build))
		require.NoError(t, err)
		assert.Equal(t, build, decoded)
	})

	t.Run("running build keeps zero finish time", func(t *testing.T) {
		build := &core.Build{
			Id:          8,
			Number:      "2",
			BuildTypeId: "Core_Tests",
			Status:      core.BuildStatusUnknown,
			StartedAt:   started,
		}

		decoded, err := UnmarshalBuild(MarshalBuild(build))
		require.NoError(t, err)
		assert.True(t, decoded.FinishedAt.IsZero())
		assert.Empty(t, decoded.Branch)
		assert.True(t, build.StartedAt.Equal(decoded.StartedAt))
	})
}

func TestMarshalUnmarshalTestOccurrence(t *testing.T) {
	test := &core.TestOccurrence{
		Id:         1001,
		BuildId:    7,
		TestNameId: core.IDFromContent("unit: org.example.LoginTest.testOk"),
		Name:       "unit: org.example.LoginTest.testOk",
		Status:     core.TestStatusIgnored,
		Muted:      true,
		DurationMs: 1234,
	}

	decoded, err := UnmarshalTestOccurrence(MarshalTestOccurrence(test))
	require.NoError(t, err)
	assert.Equal(t, test, decoded)
}

func TestMarshalUnmarshalCheckpoint(t *testing.T) {
	checkpoint := &core.Checkpoint{
		Source:    "/var/lib/quarry/builds.jsonl",
		Position:  12000,
		UpdatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}

	decoded, err := UnmarshalCheckpoint(MarshalCheckpoint(checkpoint))
	require.NoError(t, err)
	assert.Equal(t, checkpoint, decoded)
}

func TestUnmarshal_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty data", []byte{}},
		{"invalid data", []byte{0xFF, 0xFF, 0xFF}},
		{"partial data", []byte{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalBuild(tt.data)
			assert.True(t, errors.Is(err, ErrSerializationFailed), "build: %v", err)

			_, err = UnmarshalTestOccurrence(tt.data)
			assert.True(t, errors.Is(err, ErrSerializationFailed), "test occurrence: %v", err)
		})
	}

	_, err := UnmarshalID(nil)
	assert.ErrorIs(t, err, ErrTruncatedData)

	_, err = UnmarshalCheckpoint(MarshalCheckpoint(&core.Checkpoint{Source: "a"})[:2])
	assert.ErrorIs(t, err, ErrTruncatedData)
}
