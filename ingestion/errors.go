package ingestion

import "errors"

var (
	// ErrBuildRepositoryRequired is returned when a build repository is not provided.
	ErrBuildRepositoryRequired = errors.New("build repository required")

	// ErrTestRepositoryRequired is returned when a test occurrence repository is not provided.
	ErrTestRepositoryRequired = errors.New("test occurrence repository required")

	// ErrCheckpointRepositoryRequired is returned when a checkpoint repository is not provided.
	ErrCheckpointRepositoryRequired = errors.New("checkpoint repository required")

	// ErrInvalidRecord is returned for input lines that are not valid records.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrInvalidMaxAttempts is returned when maxAttempts is not positive.
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
