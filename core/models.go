package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// BuildStatus is the outcome of a build.
type BuildStatus int

const (
	BuildStatusSuccess BuildStatus = iota + 1
	BuildStatusFailure
	BuildStatusUnknown
)

var buildStatusNames = map[BuildStatus]string{
	BuildStatusSuccess: "SUCCESS",
	BuildStatusFailure: "FAILURE",
	BuildStatusUnknown: "UNKNOWN",
}

func (s BuildStatus) String() string {
	if name, ok := buildStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("BuildStatus(%d)", int(s))
}

// ParseBuildStatus parses a status name, ignoring case.
func ParseBuildStatus(text string) (BuildStatus, error) {
	for status, name := range buildStatusNames {
		if strings.EqualFold(name, text) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidBuildStatus, text)
}

// TestStatus is the outcome of one test run.
type TestStatus int

const (
	TestStatusSuccess TestStatus = iota + 1
	TestStatusFailure
	TestStatusIgnored
)

var testStatusNames = map[TestStatus]string{
	TestStatusSuccess: "SUCCESS",
	TestStatusFailure: "FAILURE",
	TestStatusIgnored: "IGNORED",
}

func (s TestStatus) String() string {
	if name, ok := testStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("TestStatus(%d)", int(s))
}

// ParseTestStatus parses a status name, ignoring case.
func ParseTestStatus(text string) (TestStatus, error) {
	for status, name := range testStatusNames {
		if strings.EqualFold(name, text) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTestStatus, text)
}

// Build is one run of a build configuration.
type Build struct {
	Id          ID
	Number      string // Build number as shown to users, unique within a build type
	BuildTypeId string // Build configuration the build belongs to
	Branch      string
	Status      BuildStatus
	Pinned      bool
	StartedAt   time.Time
	FinishedAt  time.Time // Zero while the build is running
}

// TestOccurrence is one run of a test in a build.
type TestOccurrence struct {
	Id         ID
	BuildId    ID
	TestNameId ID // IDFromContent of Name, shared by every run of the same test
	Name       string
	Status     TestStatus
	Muted      bool
	DurationMs int64
}

// Duration returns the test duration.
func (t *TestOccurrence) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// TestName is a test name split into its scopes.
type TestName struct {
	Suite   string
	Package string
	Class   string
	Method  string // Includes the parameter list, if any
}

// ParseTestName splits names shaped "suite: pkg.Class.method(args)". The suite
// prefix and the package are optional. Dots inside the parameter list do not
// separate scopes.
func ParseTestName(name string) TestName {
	var tn TestName
	rest := name
	if suite, after, ok := strings.Cut(name, ": "); ok {
		tn.Suite = suite
		rest = after
	}

	qualified, params := rest, ""
	if i := strings.IndexByte(rest, '('); i >= 0 {
		qualified, params = rest[:i], rest[i:]
	}

	dot := strings.LastIndexByte(qualified, '.')
	if dot < 0 {
		tn.Method = qualified + params
		return tn
	}
	tn.Method = qualified[dot+1:] + params
	qualified = qualified[:dot]

	dot = strings.LastIndexByte(qualified, '.')
	if dot < 0 {
		tn.Class = qualified
		return tn
	}
	tn.Class = qualified[dot+1:]
	tn.Package = qualified[:dot]
	return tn
}

// Checkpoint records how far an import source has been processed, so that
// re-running an import resumes instead of duplicating data.
type Checkpoint struct {
	Source    string // Import source, usually a file path
	Position  int64  // Number of input lines already imported
	UpdatedAt time.Time
}
