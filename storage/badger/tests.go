package badger

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

// TestOccurrenceRepository implements storage.TestOccurrenceRepository for BadgerDB.
type TestOccurrenceRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.TestOccurrenceRepository = (*TestOccurrenceRepository)(nil)

// NewTestOccurrenceRepository creates a new TestOccurrenceRepository.
func NewTestOccurrenceRepository(backend *Backend) (*TestOccurrenceRepository, error) {
	idSeq, err := backend.GetSequence(testIDSeq)
	if err != nil {
		return nil, err
	}

	return &TestOccurrenceRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *TestOccurrenceRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *TestOccurrenceRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddTestOccurrences adds test occurrences to storage.
func (r *TestOccurrenceRepository) AddTestOccurrences(ctx context.Context, tests ...*core.TestOccurrence) ([]*core.TestOccurrence, error) {
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, test := range tests {
			if _, err := tx.Get(makeBuildKey(test.BuildId)); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: build %d of test %q", storage.ErrNotFound, test.BuildId, test.Name)
				}
				return err
			}

			if test.Id == 0 {
				id, err := nextID(r.idSeq)
				if err != nil {
					return err
				}
				test.Id = id
			}
			if test.TestNameId == 0 {
				test.TestNameId = core.IDFromContent(test.Name)
			}

			// Store primary record
			if err := tx.Set(makeTestKey(test.Id), storage.MarshalTestOccurrence(test)); err != nil {
				return err
			}

			// Update build index
			if err := tx.Set(makeTestBuildKey(test.BuildId, test.Id), storage.MarshalID(test.Id)); err != nil {
				return err
			}
		}
		return nil
	}, true)

	if err != nil {
		return nil, err
	}
	return tests, nil
}

// DeleteTestOccurrences removes test occurrences by their IDs.
func (r *TestOccurrenceRepository) DeleteTestOccurrences(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			test, err := readValue(tx, makeTestKey(id), storage.UnmarshalTestOccurrence)
			if err != nil {
				return err
			}
			if err := tx.Delete(makeTestKey(id)); err != nil {
				return err
			}
			if err := tx.Delete(makeTestBuildKey(test.BuildId, id)); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// GetTestOccurrence retrieves a single test occurrence by ID.
func (r *TestOccurrenceRepository) GetTestOccurrence(ctx context.Context, id core.ID) (*core.TestOccurrence, error) {
	var test *core.TestOccurrence
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		test, err = readValue(tx, makeTestKey(id), storage.UnmarshalTestOccurrence)
		return err
	}, false)
	return test, err
}

// ScanTestOccurrences streams every test occurrence in ID order.
func (r *TestOccurrenceRepository) ScanTestOccurrences(ctx context.Context) iter.Seq2[*core.TestOccurrence, error] {
	return scanPrefix(ctx, r.backend, []byte(testPrefix), false,
		func(_ *badger.Txn, item *badger.Item) (*core.TestOccurrence, bool, error) {
			var test *core.TestOccurrence
			err := item.Value(func(val []byte) error {
				var err error
				test, err = storage.UnmarshalTestOccurrence(val)
				return err
			})
			return test, err == nil, err
		})
}

// ScanBuildTestOccurrences streams the test occurrences of one build in ID order.
func (r *TestOccurrenceRepository) ScanBuildTestOccurrences(ctx context.Context, buildID core.ID) iter.Seq2[*core.TestOccurrence, error] {
	return scanIndex(ctx, r.backend, makePartialTestBuildKey(buildID), false,
		func(tx *badger.Txn, val []byte) (*core.TestOccurrence, bool, error) {
			id, err := storage.UnmarshalID(val)
			if err != nil {
				return nil, false, err
			}
			test, err := readValue(tx, makeTestKey(id), storage.UnmarshalTestOccurrence)
			if errors.Is(err, storage.ErrNotFound) {
				return nil, false, nil
			}
			return test, err == nil, err
		})
}
