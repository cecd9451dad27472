package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/quarry/core"
)

// Record is one input line.
type Record struct {
	Build BuildRecord  `json:"build"`
	Tests []TestRecord `json:"tests,omitempty"`
}

// BuildRecord is the JSON form of a build.
type BuildRecord struct {
	BuildType  string    `json:"buildType"`
	Number     string    `json:"number"`
	Branch     string    `json:"branch,omitempty"`
	Status     string    `json:"status"`
	Pinned     bool      `json:"pinned,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`
}

// TestRecord is the JSON form of a test occurrence.
type TestRecord struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Muted      bool   `json:"muted,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

// NewRecord converts a build and its tests to the input format.
func NewRecord(build *core.Build, tests []*core.TestOccurrence) Record {
	r := Record{
		Build: BuildRecord{
			BuildType:  build.BuildTypeId,
			Number:     build.Number,
			Branch:     build.Branch,
			Status:     build.Status.String(),
			Pinned:     build.Pinned,
			StartedAt:  build.StartedAt,
			FinishedAt: build.FinishedAt,
		},
		Tests: make([]TestRecord, len(tests)),
	}
	for i, t := range tests {
		r.Tests[i] = TestRecord{
			Name:       t.Name,
			Status:     t.Status.String(),
			Muted:      t.Muted,
			DurationMs: t.DurationMs,
		}
	}
	return r
}

// entry is a validated record ready to be stored.
type entry struct {
	build *core.Build
	tests []*core.TestOccurrence
}

// parseRecord decodes and validates one input line.
func parseRecord(line []byte) (entry, error) {
	var r Record
	if err := json.Unmarshal(line, &r); err != nil {
		return entry{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	status, err := core.ParseBuildStatus(r.Build.Status)
	if err != nil {
		return entry{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	e := entry{
		build: &core.Build{
			Number:      r.Build.Number,
			BuildTypeId: r.Build.BuildType,
			Branch:      r.Build.Branch,
			Status:      status,
			Pinned:      r.Build.Pinned,
			StartedAt:   r.Build.StartedAt.UTC(),
			FinishedAt:  r.Build.FinishedAt.UTC(),
		},
		tests: make([]*core.TestOccurrence, len(r.Tests)),
	}
	if err := core.ValidateBuild(e.build); err != nil {
		return entry{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	for i, tr := range r.Tests {
		status, err := core.ParseTestStatus(tr.Status)
		if err != nil {
			return entry{}, fmt.Errorf("%w: test %d: %w", ErrInvalidRecord, i, err)
		}
		test := &core.TestOccurrence{
			Name:       tr.Name,
			Status:     status,
			Muted:      tr.Muted,
			DurationMs: tr.DurationMs,
		}
		if err := core.ValidateTestOccurrence(test); err != nil {
			return entry{}, fmt.Errorf("%w: test %d: %w", ErrInvalidRecord, i, err)
		}
		e.tests[i] = test
	}
	return e, nil
}
