package dedup

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/btree"
)

// Checker decides whether an item was already seen during one lookup.
type Checker[T any] interface {
	// IsDuplicate records the item and reports whether an equal one was recorded before.
	IsDuplicate(item T) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc[T any] func(item T) bool

// IsDuplicate implements Checker.
func (f CheckerFunc[T]) IsDuplicate(item T) bool {
	return f(item)
}

// Factory creates a fresh Checker for every lookup.
type Factory[T any] func() Checker[T]

// hashChecker remembers items in a hash set.
type hashChecker[T comparable] struct {
	seen mapset.Set[T]
}

var _ Checker[string] = (*hashChecker[string])(nil)

// NewHashChecker returns a checker comparing items with ==.
func NewHashChecker[T comparable]() Checker[T] {
	return &hashChecker[T]{seen: mapset.NewThreadUnsafeSet[T]()}
}

func (c *hashChecker[T]) IsDuplicate(item T) bool {
	return !c.seen.Add(item)
}

// keyChecker remembers a key projected from each item.
type keyChecker[T any, K comparable] struct {
	key  func(T) K
	seen mapset.Set[K]
}

// NewKeyChecker returns a checker treating items with equal keys as duplicates.
func NewKeyChecker[T any, K comparable](key func(T) K) Checker[T] {
	return &keyChecker[T, K]{key: key, seen: mapset.NewThreadUnsafeSet[K]()}
}

func (c *keyChecker[T, K]) IsDuplicate(item T) bool {
	return !c.seen.Add(c.key(item))
}

const btreeDegree = 8

// comparatorChecker keeps seen items in an ordered tree.
type comparatorChecker[T any] struct {
	seen *btree.BTreeG[T]
}

// NewComparatorChecker returns a checker treating items that compare as equal
// (cmp returns 0) as duplicates. cmp must be a consistent total order.
func NewComparatorChecker[T any](cmp func(a, b T) int) Checker[T] {
	less := func(a, b T) bool { return cmp(a, b) < 0 }
	return &comparatorChecker[T]{seen: btree.NewG[T](btreeDegree, less)}
}

func (c *comparatorChecker[T]) IsDuplicate(item T) bool {
	if c.seen.Has(item) {
		return true
	}
	c.seen.ReplaceOrInsert(item)
	return false
}
