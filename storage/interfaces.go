package storage

import (
	"context"
	"iter"

	"github.com/poiesic/quarry/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// BuildRepository provides operations for managing builds.
type BuildRepository interface {
	Repository
	// AddBuilds adds one or more builds to storage.
	// Builds with ID=0 get a new ID from the sequence.
	// Returns ErrDuplicateKey if a build with the same build type and number exists.
	AddBuilds(ctx context.Context, builds ...*core.Build) ([]*core.Build, error)

	// DeleteBuilds removes builds and their indices.
	// Returns ErrNotFound if any build doesn't exist.
	DeleteBuilds(ctx context.Context, ids ...core.ID) error

	// GetBuild retrieves a single build by ID.
	// Returns ErrNotFound if the build doesn't exist.
	GetBuild(ctx context.Context, id core.ID) (*core.Build, error)

	// GetBuilds retrieves multiple builds by their IDs.
	// Returns only the builds that exist (no error for missing builds).
	GetBuilds(ctx context.Context, ids ...core.ID) ([]*core.Build, error)

	// FindBuildsByNumber returns the builds with the given number, newest first.
	// An empty buildTypeID matches every build type.
	FindBuildsByNumber(ctx context.Context, buildTypeID, number string) ([]*core.Build, error)

	// ScanBuilds streams builds newest first. An empty buildTypeID streams
	// every build. The scan reads lazily; stopping iteration early releases it.
	ScanBuilds(ctx context.Context, buildTypeID string) iter.Seq2[*core.Build, error]
}

// TestOccurrenceRepository provides operations for managing test occurrences.
type TestOccurrenceRepository interface {
	Repository
	// AddTestOccurrences adds test occurrences to storage.
	// Occurrences with ID=0 get a new ID from the sequence, and TestNameId
	// is derived from the name when unset.
	AddTestOccurrences(ctx context.Context, tests ...*core.TestOccurrence) ([]*core.TestOccurrence, error)

	// DeleteTestOccurrences removes test occurrences and their indices.
	// Returns ErrNotFound if any occurrence doesn't exist.
	DeleteTestOccurrences(ctx context.Context, ids ...core.ID) error

	// GetTestOccurrence retrieves a single test occurrence by ID.
	// Returns ErrNotFound if the occurrence doesn't exist.
	GetTestOccurrence(ctx context.Context, id core.ID) (*core.TestOccurrence, error)

	// ScanTestOccurrences streams every test occurrence in ID order.
	ScanTestOccurrences(ctx context.Context) iter.Seq2[*core.TestOccurrence, error]

	// ScanBuildTestOccurrences streams the test occurrences of one build in ID order.
	ScanBuildTestOccurrences(ctx context.Context, buildID core.ID) iter.Seq2[*core.TestOccurrence, error]
}

// CheckpointRepository persists import progress.
type CheckpointRepository interface {
	// SaveCheckpoint stores the checkpoint for its source.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the checkpoint for a source.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, source string) (*core.Checkpoint, error)
}
