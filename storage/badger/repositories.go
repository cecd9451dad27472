package badger

import "errors"

// Repositories bundles the repositories of one backend.
type Repositories struct {
	Backend     *Backend
	Builds      *BuildRepository
	Tests       *TestOccurrenceRepository
	Checkpoints *CheckpointRepository
}

// NewRepositories creates every repository on an open backend.
// The caller keeps ownership of the backend.
func NewRepositories(backend *Backend) (*Repositories, error) {
	builds, err := NewBuildRepository(backend)
	if err != nil {
		return nil, err
	}

	tests, err := NewTestOccurrenceRepository(backend)
	if err != nil {
		builds.Close()
		return nil, err
	}

	return &Repositories{
		Backend:     backend,
		Builds:      builds,
		Tests:       tests,
		Checkpoints: NewCheckpointRepository(backend),
	}, nil
}

// Close releases the ID sequences and closes the backend.
func (r *Repositories) Close() error {
	return errors.Join(r.Tests.Close(), r.Builds.Close(), r.Backend.Close())
}
