package finder

import (
	"context"
	"iter"

	"github.com/poiesic/quarry/dedup"
	"github.com/poiesic/quarry/locator"
)

// Dimension describes a locator dimension for help and error messages.
type Dimension struct {
	Name        string
	Description string
}

// Source supplies the item-specific half of a finder.
type Source[T any] interface {
	// Name identifies the finder in errors and logs.
	Name() string

	// Dimensions lists the locator dimensions the source understands.
	Dimensions() []Dimension

	// PrefilteredItems returns the candidates for a locator in result order.
	// It may read dimensions to narrow the candidate set cheaply, but the
	// returned items are still passed through Filter.
	PrefilteredItems(ctx context.Context, loc *locator.Locator) (iter.Seq2[T, error], error)

	// Filter builds the predicate for the dimensions the source understands.
	// Dimensions it does not read are reported back to the caller as unused.
	Filter(ctx context.Context, loc *locator.Locator) (Filter[T], error)

	// ItemLocator returns a locator that finds exactly this item.
	ItemLocator(item T) string
}

// SingleItemFinder is implemented by sources that resolve single-value
// locators by a natural key in FindItem. Its answer is final: returning false
// means nothing is found, without a filtered scan.
type SingleItemFinder[T any] interface {
	FindSingleItem(ctx context.Context, loc *locator.Locator) (T, bool, error)
}

// DuplicateCheckerFactory is implemented by sources that support "unique".
type DuplicateCheckerFactory[T any] interface {
	NewDuplicateChecker() dedup.Checker[T]
}

// PageSizer is implemented by sources with their own default page size.
type PageSizer interface {
	DefaultPageItemsCount() int
}
