package finder

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/quarry/dedup"
)

// DefaultPageSize is the page size when neither the source nor an option sets one.
const DefaultPageSize = 100

// Option configures a Finder.
type Option func(*options) error

type options struct {
	logger      *slog.Logger
	pageSize    int
	lookupLimit int
	duplicates  any
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// WithDefaultPageSize sets the count used when a locator has none.
// NoLimit disables the default page.
func WithDefaultPageSize(size int) Option {
	return func(o *options) error {
		if size < NoLimit {
			return fmt.Errorf("default page size must be positive or NoLimit, got %d", size)
		}
		o.pageSize = size
		return nil
	}
}

// WithDefaultLookupLimit caps how many candidates a lookup scans when the
// locator has no lookupLimit. Zero or NoLimit means no cap.
func WithDefaultLookupLimit(limit int) Option {
	return func(o *options) error {
		if limit < NoLimit {
			return fmt.Errorf("default lookup limit must be positive or NoLimit, got %d", limit)
		}
		if limit == 0 {
			limit = NoLimit
		}
		o.lookupLimit = limit
		return nil
	}
}

// WithDuplicateChecker sets the checker used for "unique:true". It overrides
// a checker supplied by the source.
func WithDuplicateChecker[T any](factory dedup.Factory[T]) Option {
	return func(o *options) error {
		o.duplicates = factory
		return nil
	}
}
