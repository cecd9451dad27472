package badger

import (
	"context"
	"testing"

	"github.com/poiesic/quarry/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoints(t *testing.T) {
	repos := newTestRepositories(t)
	ctx := context.Background()

	checkpoint, err := repos.Checkpoints.LoadCheckpoint(ctx, "builds.jsonl")
	require.NoError(t, err)
	assert.Nil(t, checkpoint)

	require.NoError(t, repos.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Source: "builds.jsonl", Position: 10}))
	require.NoError(t, repos.Checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Source: "other.jsonl", Position: 3}))

	checkpoint, err = repos.Checkpoints.LoadCheckpoint(ctx, "builds.jsonl")
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, int64(10), checkpoint.Position)
	assert.False(t, checkpoint.UpdatedAt.IsZero())
}
