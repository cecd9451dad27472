package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/quarry/core"
	"github.com/poiesic/quarry/storage"
)

const (
	defaultBatchSize   = 100
	defaultMaxAttempts = 5
	defaultRetryDelay  = 10 * time.Millisecond
	maxLineSize        = 16 * 1024 * 1024
)

// Stats summarizes one import.
type Stats struct {
	Lines    int // Input lines read, resumed ones included
	Resumed  int // Lines skipped because the checkpoint covered them
	Builds   int // Builds stored
	Tests    int // Test occurrences stored
	Existing int // Builds skipped because they were already stored
}

// Importer stores JSON lines records through the repositories.
type Importer struct {
	builds      storage.BuildRepository
	tests       storage.TestOccurrenceRepository
	checkpoints storage.CheckpointRepository
	pool        *ants.Pool
	poolSize    int
	batchSize   int
	maxAttempts int
	retryDelay  time.Duration
	progress    io.Writer
	logger      *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithPoolSize sets the number of batches written concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(imp *Importer) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if imp.pool != nil {
			imp.pool.Release()
		}
		imp.pool = pool
		imp.poolSize = size
		return nil
	}
}

// WithBatchSize sets the number of records written per transaction.
// Default is 100.
func WithBatchSize(size int) Option {
	return func(imp *Importer) error {
		if size < 1 {
			return fmt.Errorf("batch size must be positive, got %d", size)
		}
		imp.batchSize = size
		return nil
	}
}

// WithRetry sets how often a batch is retried after a transaction conflict.
// Default is 5 attempts starting with a 10ms delay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(imp *Importer) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		imp.maxAttempts = maxAttempts
		imp.retryDelay = baseDelay
		return nil
	}
}

// WithProgress reports progress of file imports to w.
func WithProgress(w io.Writer) Option {
	return func(imp *Importer) error {
		imp.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(imp *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		imp.logger = logger
		return nil
	}
}

// NewImporter creates an importer.
func NewImporter(
	builds storage.BuildRepository,
	tests storage.TestOccurrenceRepository,
	checkpoints storage.CheckpointRepository,
	opts ...Option,
) (*Importer, error) {
	if builds == nil {
		return nil, ErrBuildRepositoryRequired
	}
	if tests == nil {
		return nil, ErrTestRepositoryRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointRepositoryRequired
	}

	poolSize := max(runtime.NumCPU()/2, 1)
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	imp := &Importer{
		builds:      builds,
		tests:       tests,
		checkpoints: checkpoints,
		pool:        pool,
		poolSize:    poolSize,
		batchSize:   defaultBatchSize,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(imp); err != nil {
			imp.Release()
			return nil, err
		}
	}
	return imp, nil
}

// Release releases the worker pool.
// The importer should not be used after calling Release.
func (imp *Importer) Release() {
	if imp.pool != nil {
		imp.pool.Release()
	}
}

// ImportFile imports a JSON lines file. The file path is the checkpoint source.
func (imp *Importer) ImportFile(ctx context.Context, path string) (*Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if imp.progress == nil {
		return imp.Import(ctx, path, f)
	}

	total, err := countLines(f)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	tracker := NewProgressTracker(imp.progress, total, max(total/100, 1))
	stats, err := imp.importLines(ctx, path, f, tracker)
	if err == nil {
		tracker.Finish()
	}
	return stats, err
}

// Import reads records from r. Lines up to the checkpoint saved for source
// are skipped, and the checkpoint is advanced as batches are stored. An
// invalid line stops the import after everything before it is stored.
func (imp *Importer) Import(ctx context.Context, source string, r io.Reader) (*Stats, error) {
	return imp.importLines(ctx, source, r, nil)
}

// batch is a run of consecutive records. end is the number of the last
// input line it covers.
type batch struct {
	entries []entry
	end     int64
}

type batchResult struct {
	builds   int
	tests    int
	existing int
}

func (imp *Importer) importLines(ctx context.Context, source string, r io.Reader, tracker *ProgressTracker) (*Stats, error) {
	checkpoint, err := imp.checkpoints.LoadCheckpoint(ctx, source)
	if err != nil {
		return nil, err
	}
	var resumeAt int64
	if checkpoint != nil {
		resumeAt = checkpoint.Position
		imp.logger.Info("resuming import", "source", source, "line", resumeAt)
	}

	stats := &Stats{}
	var (
		round   []batch
		current batch
		line    int64
	)
	flush := func() error {
		if len(current.entries) > 0 || current.end > 0 {
			round = append(round, current)
			current = batch{}
		}
		err := imp.writeRound(ctx, source, round, stats, tracker)
		round = round[:0]
		return err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line++
		stats.Lines++
		tracker.LineRead(line <= resumeAt)
		if line <= resumeAt {
			stats.Resumed++
			continue
		}

		text := bytes.TrimSpace(scanner.Bytes())
		current.end = line
		if len(text) == 0 {
			continue
		}
		e, err := parseRecord(text)
		if err != nil {
			current.end = line - 1
			return stats, errors.Join(fmt.Errorf("%s:%d: %w", source, line, err), flush())
		}
		current.entries = append(current.entries, e)

		if len(current.entries) == imp.batchSize {
			round = append(round, current)
			current = batch{}
			if len(round) == imp.poolSize {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, errors.Join(err, flush())
	}
	if err := flush(); err != nil {
		return stats, err
	}

	imp.logger.Info("import finished",
		"source", source,
		"lines", stats.Lines,
		"resumed", stats.Resumed,
		"builds", stats.Builds,
		"tests", stats.Tests,
		"existing", stats.Existing)
	return stats, nil
}

// writeRound writes batches concurrently and advances the checkpoint to the
// end of the longest run of stored batches from the start of the round.
func (imp *Importer) writeRound(ctx context.Context, source string, round []batch, stats *Stats, tracker *ProgressTracker) error {
	if len(round) == 0 {
		return nil
	}

	results := make([]batchResult, len(round))
	errs := make([]error, len(round))
	var wg sync.WaitGroup
	for i, b := range round {
		wg.Add(1)
		err := imp.pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = imp.writeBatch(ctx, b)
		})
		if err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()
	defer tracker.RoundDone()

	position := int64(-1)
	stored := true
	for i, b := range round {
		tracker.BatchDone(results[i], errs[i])
		if errs[i] != nil {
			imp.logger.Error("error writing batch", "source", source, "endLine", b.end, "err", errs[i])
			stored = false
			continue
		}
		stats.Builds += results[i].builds
		stats.Tests += results[i].tests
		stats.Existing += results[i].existing
		if stored {
			position = b.end
		}
	}

	if position >= 0 {
		err := imp.checkpoints.SaveCheckpoint(ctx, &core.Checkpoint{Source: source, Position: position})
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// writeBatch stores a batch in one transaction, retrying on conflicts.
// Builds that already exist are skipped together with their tests.
func (imp *Importer) writeBatch(ctx context.Context, b batch) (batchResult, error) {
	var result batchResult
	err := RetryWithBackoff(ctx, func() error {
		result = batchResult{}
		return imp.builds.WithTransaction(ctx, func(ctx context.Context) error {
			for _, e := range b.entries {
				build := *e.build
				added, err := imp.builds.AddBuilds(ctx, &build)
				if errors.Is(err, storage.ErrDuplicateKey) {
					result.existing++
					continue
				}
				if err != nil {
					return err
				}

				tests := make([]*core.TestOccurrence, len(e.tests))
				for i, t := range e.tests {
					test := *t
					test.BuildId = added[0].Id
					tests[i] = &test
				}
				if len(tests) > 0 {
					if _, err := imp.tests.AddTestOccurrences(ctx, tests...); err != nil {
						return err
					}
				}
				result.builds++
				result.tests += len(tests)
			}
			return nil
		})
	}, imp.maxAttempts, imp.retryDelay, isConflict)
	return result, err
}

func countLines(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	n := 0
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
