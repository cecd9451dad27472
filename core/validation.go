// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"
)

// ValidateBuild validates a Build according to domain rules.
//
// Validation rules:
//   - Number and BuildTypeId must not be empty
//   - Status must be valid
//   - StartedAt must be set and not in the future
//   - FinishedAt, when set, must not be before StartedAt
//
// NOT validated:
//   - ID (0 is valid from database sequences)
//   - Branch (empty means the default branch)
func ValidateBuild(build *Build) error {
	if build == nil {
		return fmt.Errorf("%w: build is nil", ErrInvalidBuild)
	}

	if build.Number == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBuild, ErrEmptyBuildNumber)
	}

	if build.BuildTypeId == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBuild, ErrEmptyBuildType)
	}

	if err := ValidateBuildStatus(build.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBuild, err)
	}

	if build.StartedAt.IsZero() || !IsValidTimestamp(build.StartedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidBuild, ErrInvalidTimestamp)
	}

	if !build.FinishedAt.IsZero() && build.FinishedAt.Before(build.StartedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidBuild, ErrFinishBeforeStart)
	}

	return nil
}

// ValidateTestOccurrence validates a TestOccurrence according to domain rules.
//
// Validation rules:
//   - Name must not be empty
//   - Status must be valid
//   - DurationMs must not be negative
//
// NOT validated (assigned on insert):
//   - ID, BuildId and TestNameId
func ValidateTestOccurrence(test *TestOccurrence) error {
	if test == nil {
		return fmt.Errorf("%w: test occurrence is nil", ErrInvalidTestOccurrence)
	}

	if test.Name == "" {
		return fmt.Errorf("%w: %w", ErrInvalidTestOccurrence, ErrEmptyTestName)
	}

	if err := ValidateTestStatus(test.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTestOccurrence, err)
	}

	if test.DurationMs < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidTestOccurrence, ErrNegativeDuration)
	}

	return nil
}

// ValidateBuildStatus validates that a BuildStatus has a valid value.
func ValidateBuildStatus(status BuildStatus) error {
	if _, ok := buildStatusNames[status]; !ok {
		return fmt.Errorf("%w: value %d", ErrInvalidBuildStatus, status)
	}
	return nil
}

// ValidateTestStatus validates that a TestStatus has a valid value.
func ValidateTestStatus(status TestStatus) error {
	if _, ok := testStatusNames[status]; !ok {
		return fmt.Errorf("%w: value %d", ErrInvalidTestStatus, status)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
