package quarry

import (
	"errors"
	"runtime"

	"github.com/poiesic/quarry/finder"
)

// Config holds the tuning knobs of a Database.
type Config struct {
	// DefaultPageSize is the number of items returned when a locator has no
	// count. finder.NoLimit returns everything.
	// Default: 100
	DefaultPageSize int

	// DefaultLookupLimit caps how many candidates a lookup scans when the
	// locator has no lookupLimit. Zero means no cap.
	// Default: 0
	DefaultLookupLimit int

	// TreePoolSize is the number of per-build test trees built concurrently.
	// Default: runtime.NumCPU() / 2, minimum 1
	TreePoolSize int

	// ImportPoolSize is the number of import batches written concurrently.
	// Default: runtime.NumCPU() / 2, minimum 1
	ImportPoolSize int

	// ImportBatchSize is the number of records written per transaction.
	// Default: 100
	ImportBatchSize int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDefaultPageSize sets the page size used when a locator has no count.
func WithDefaultPageSize(size int) ConfigOption {
	return func(c *Config) {
		c.DefaultPageSize = size
	}
}

// WithDefaultLookupLimit sets the lookup limit used when a locator has none.
func WithDefaultLookupLimit(limit int) ConfigOption {
	return func(c *Config) {
		c.DefaultLookupLimit = limit
	}
}

// WithTreePoolSize sets the number of workers building test trees.
func WithTreePoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.TreePoolSize = size
	}
}

// WithImportPoolSize sets the number of workers writing import batches.
func WithImportPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.ImportPoolSize = size
	}
}

// WithImportBatchSize sets the number of records per import transaction.
func WithImportBatchSize(size int) ConfigOption {
	return func(c *Config) {
		c.ImportBatchSize = size
	}
}

// DefaultConfig returns a Config with the defaults listed on its fields.
func DefaultConfig() *Config {
	workers := max(runtime.NumCPU()/2, 1)
	return &Config{
		DefaultPageSize:    finder.DefaultPageSize,
		DefaultLookupLimit: 0,
		TreePoolSize:       workers,
		ImportPoolSize:     workers,
		ImportBatchSize:    100,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithDefaultPageSize(50),
//	    WithImportBatchSize(500),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DefaultPageSize == 0 || c.DefaultPageSize < finder.NoLimit {
		return errors.New("quarry config: DefaultPageSize must be positive or NoLimit")
	}
	if c.DefaultLookupLimit < finder.NoLimit {
		return errors.New("quarry config: DefaultLookupLimit must not be negative")
	}
	if c.TreePoolSize < 1 {
		return errors.New("quarry config: TreePoolSize must be at least 1")
	}
	if c.ImportPoolSize < 1 {
		return errors.New("quarry config: ImportPoolSize must be at least 1")
	}
	if c.ImportBatchSize < 1 {
		return errors.New("quarry config: ImportBatchSize must be at least 1")
	}
	return nil
}
