package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how far a file import has got. Lines count as soon
// as they are read; builds and tests count once their batch is stored. A nil
// tracker ignores every call.
type ProgressTracker struct {
	mu      sync.Mutex
	w       io.Writer
	total   int
	every   int
	read    int
	resumed int
	shown   int
	stored  batchResult
	batches int
	failed  int
	start   time.Time
}

// NewProgressTracker starts tracking an input of total lines. The line count
// is reported every `every` lines and after each stored round of batches.
func NewProgressTracker(w io.Writer, total, every int) *ProgressTracker {
	return &ProgressTracker{
		w:     w,
		total: total,
		every: max(every, 1),
		start: time.Now(),
	}
}

// LineRead counts one input line. resumed marks a line skipped because the
// checkpoint already covers it.
func (p *ProgressTracker) LineRead(resumed bool) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.read = min(p.read+1, p.total)
	if resumed {
		p.resumed++
	}
	if p.read-p.shown >= p.every {
		p.report()
	}
}

// BatchDone records the outcome of one batch write.
func (p *ProgressTracker) BatchDone(r batchResult, err error) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.failed++
		return
	}
	p.batches++
	p.stored.builds += r.builds
	p.stored.tests += r.tests
	p.stored.existing += r.existing
}

// RoundDone reports after a round of batches was written.
func (p *ProgressTracker) RoundDone() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report()
}

// Finish prints the final line and ends it.
func (p *ProgressTracker) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.read = p.total
	p.report()
	fmt.Fprintln(p.w)
}

// report must be called with the lock held.
func (p *ProgressTracker) report() {
	p.shown = p.read

	percentage := 0.0
	if p.total > 0 {
		percentage = float64(p.read) / float64(p.total) * 100.0
	}
	rate := float64(p.read-p.resumed) / time.Since(p.start).Seconds()

	fmt.Fprintf(p.w, "\rImported: %d/%d lines (%.1f%%), %d resumed - %d batches: %d builds, %d tests, %d existing",
		p.read, p.total, percentage, p.resumed, p.batches, p.stored.builds, p.stored.tests, p.stored.existing)
	if p.failed > 0 {
		fmt.Fprintf(p.w, ", %d failed", p.failed)
	}
	fmt.Fprintf(p.w, " - %.1f lines/s", rate)
}
