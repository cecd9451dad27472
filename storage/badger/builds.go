package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// BuildRepository implements storage.BuildRepository for BadgerDB.
type BuildRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.BuildRepository = (*BuildRepository)(nil)

// NewBuildRepository creates a new BuildRepository.
func NewBuildRepository(backend *Backend) (*BuildRepository, error) {
	idSeq, err := backend.GetSequence(buildIDSeq)
	if err != nil {
		return nil, err
	}

	return &BuildRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *BuildRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *BuildRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddBuilds adds one or more builds to storage.
func (r *BuildRepository) AddBuilds(ctx context.Context, builds ...*core.Build) ([]*core.Build, error) {
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, build := range builds {
			// Reading the unique key makes concurrent inserts of the same
			// build conflict on commit.
			_, err := tx.Get(makeBuildUniqueKey(build.BuildTypeId, build.Number))
			if err == nil {
				return fmt.Errorf("%w: build %s #%s", storage.ErrDuplicateKey, build.BuildTypeId, build.Number)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			if build.Id == 0 {
				id, err := nextID(r.idSeq)
				if err != nil {
					return err
				}
				build.Id = id
			} else if _, err := tx.Get(makeBuildKey(build.Id)); err == nil {
				return fmt.Errorf("%w: build id %d", storage.ErrDuplicateKey, build.Id)
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			if err := r.writeBuild(tx, build); err != nil {
				return err
			}
		}
		return nil
	}, true)

	if err != nil {
		return nil, err
	}
	return builds, nil
}

func (r *BuildRepository) writeBuild(tx *badger.Txn, build *core.Build) error {
	// Store primary record
	if err := tx.Set(makeBuildKey(build.Id), storage.MarshalBuild(build)); err != nil {
		return err
	}

	// Update unique key, build type and number indices
	id := storage.MarshalID(build.Id)
	if err := tx.Set(makeBuildUniqueKey(build.BuildTypeId, build.Number), id); err != nil {
		return err
	}
	if err := tx.Set(makeBuildTypeKey(build.BuildTypeId, build.Id), id); err != nil {
		return err
	}
	return tx.Set(makeBuildNumberKey(build.Number, build.Id), id)
}

// DeleteBuilds removes builds by their IDs.
func (r *BuildRepository) DeleteBuilds(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			build, err := readValue(tx, makeBuildKey(id), storage.UnmarshalBuild)
			if err != nil {
				return err
			}

			if err := tx.Delete(makeBuildKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeBuildUniqueKey(build.BuildTypeId, build.Number)); err != nil {
				return err
			}
			if err := tx.Delete(makeBuildTypeKey(build.BuildTypeId, id)); err != nil {
				return err
			}
			if err := tx.Delete(makeBuildNumberKey(build.Number, id)); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// GetBuild retrieves a single build by ID.
func (r *BuildRepository) GetBuild(ctx context.Context, id core.ID) (*core.Build, error) {
	var build *core.Build
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		build, err = readValue(tx, makeBuildKey(id), storage.UnmarshalBuild)
		return err
	}, false)
	return build, err
}

// GetBuilds retrieves multiple builds by their IDs.
func (r *BuildRepository) GetBuilds(ctx context.Context, ids ...core.ID) ([]*core.Build, error) {
	var builds []*core.Build
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			build, err := readValue(tx, makeBuildKey(id), storage.UnmarshalBuild)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			builds = append(builds, build)
		}
		return nil
	}, false)
	return builds, err
}

// FindBuildsByNumber returns the builds with the given number, newest first.
func (r *BuildRepository) FindBuildsByNumber(ctx context.Context, buildTypeID, number string) ([]*core.Build, error) {
	var builds []*core.Build
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		builds, err = r.findByNumber(tx, buildTypeID, number)
		return err
	}, false)
	return builds, err
}

func (r *BuildRepository) findByNumber(tx *badger.Txn, buildTypeID, number string) ([]*core.Build, error) {
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	it := tx.NewIterator(opts)
	defer it.Close()

	prefix := makePartialBuildNumberKey(number)
	var builds []*core.Build
	for it.Seek(prefixEnd(prefix)); it.Valid(); it.Next() {
		key := it.Item().Key()
		if !bytes.HasPrefix(key, prefix) {
			if bytes.Compare(key, prefix) > 0 {
				continue
			}
			break
		}

		var id core.ID
		if err := it.Item().Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return nil, err
		}

		build, err := readValue(tx, makeBuildKey(id), storage.UnmarshalBuild)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if buildTypeID == "" || build.BuildTypeId == buildTypeID {
			builds = append(builds, build)
		}
	}
	return builds, nil
}

// ScanBuilds streams builds newest first, optionally restricted to one build type.
func (r *BuildRepository) ScanBuilds(ctx context.Context, buildTypeID string) iter.Seq2[*core.Build, error] {
	if buildTypeID == "" {
		return scanPrefix(ctx, r.backend, []byte(buildPrefix), true,
			func(_ *badger.Txn, item *badger.Item) (*core.Build, bool, error) {
				var build *core.Build
				err := item.Value(func(val []byte) error {
					var err error
					build, err = storage.UnmarshalBuild(val)
					return err
				})
				return build, err == nil, err
			})
	}

	return scanIndex(ctx, r.backend, makePartialBuildTypeKey(buildTypeID), true,
		func(tx *badger.Txn, val []byte) (*core.Build, bool, error) {
			id, err := storage.UnmarshalID(val)
			if err != nil {
				return nil, false, err
			}
			build, err := readValue(tx, makeBuildKey(id), storage.UnmarshalBuild)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, false, nil
			}
			return build, err == nil, err
		})
}
