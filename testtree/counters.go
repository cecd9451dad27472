package testtree

import "github.com/poiesic/quarry/core"

// TestCounters summarizes the test runs beneath a node.
type TestCounters struct {
	Total      int
	Passed     int
	Failed     int
	Ignored    int
	Muted      int
	DurationMs int64
}

// CombinedWith adds two summaries.
func (c TestCounters) CombinedWith(other TestCounters) TestCounters {
	return TestCounters{
		Total:      c.Total + other.Total,
		Passed:     c.Passed + other.Passed,
		Failed:     c.Failed + other.Failed,
		Ignored:    c.Ignored + other.Ignored,
		Muted:      c.Muted + other.Muted,
		DurationMs: c.DurationMs + other.DurationMs,
	}
}

// Count returns the number of runs; trees ordered by count use it.
func (c TestCounters) Count() int {
	return c.Total
}

// countTests summarizes the runs of one leaf.
func countTests(tests []*core.TestOccurrence) TestCounters {
	var c TestCounters
	for _, t := range tests {
		c.Total++
		switch t.Status {
		case core.TestStatusSuccess:
			c.Passed++
		case core.TestStatusFailure:
			c.Failed++
		case core.TestStatusIgnored:
			c.Ignored++
		}
		if t.Muted {
			c.Muted++
		}
		c.DurationMs += t.DurationMs
	}
	return c
}
