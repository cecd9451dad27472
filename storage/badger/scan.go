package badger

import (
	"bytes"
	"context"
	"errors"
	"iter"

	"github.com/dgraph-io/badger/v4"
)

// errStopScan ends a scan whose consumer stopped iterating.
var errStopScan = errors.New("scan stopped")

// scanPrefix streams the entries under prefix in key order, or in reverse key
// order when reverse is set. decode turns an entry into a value; entries for
// which it returns false are skipped. A read transaction is held for as long
// as the sequence is being iterated.
func scanPrefix[T any](ctx context.Context, b *Backend, prefix []byte, reverse bool,
	decode func(tx *badger.Txn, item *badger.Item) (T, bool, error)) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		err := b.WithTx(ctx, func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Reverse = reverse
			it := tx.NewIterator(opts)
			defer it.Close()

			start := prefix
			if reverse {
				start = prefixEnd(prefix)
			}
			for it.Seek(start); it.Valid(); it.Next() {
				item := it.Item()
				key := item.Key()
				if !bytes.HasPrefix(key, prefix) {
					// A reverse scan may start on the first key past the prefix.
					if reverse && bytes.Compare(key, prefix) > 0 {
						continue
					}
					break
				}
				if err := ctx.Err(); err != nil {
					return err
				}

				value, ok, err := decode(tx, item)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				if !yield(value, nil) {
					return errStopScan
				}
			}
			return nil
		}, false)

		if err != nil && !errors.Is(err, errStopScan) {
			var zero T
			yield(zero, err)
		}
	}
}

// scanIndex streams the records referenced by an index whose values are
// record IDs. Dangling index entries are skipped.
func scanIndex[T any](ctx context.Context, b *Backend, prefix []byte, reverse bool,
	read func(tx *badger.Txn, val []byte) (T, bool, error)) iter.Seq2[T, error] {
	return scanPrefix(ctx, b, prefix, reverse, func(tx *badger.Txn, item *badger.Item) (T, bool, error) {
		var (
			value T
			ok    bool
		)
		err := item.Value(func(val []byte) error {
			var err error
			value, ok, err = read(tx, val)
			return err
		})
		return value, ok, err
	})
}
