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

import "errors"

// Domain validation errors
var (
	// ErrInvalidBuild indicates a Build failed validation.
	ErrInvalidBuild = errors.New("invalid build")

	// ErrInvalidTestOccurrence indicates a TestOccurrence failed validation.
	ErrInvalidTestOccurrence = errors.New("invalid test occurrence")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrFinishBeforeStart indicates a build finished before it started.
	ErrFinishBeforeStart = errors.New("finish time is before start time")

	// ErrEmptyBuildNumber indicates the build Number field is empty.
	ErrEmptyBuildNumber = errors.New("build number cannot be empty")

	// ErrEmptyBuildType indicates the BuildTypeId field is empty.
	ErrEmptyBuildType = errors.New("build type cannot be empty")

	// ErrInvalidBuildStatus indicates an invalid BuildStatus value.
	ErrInvalidBuildStatus = errors.New("invalid build status")

	// ErrEmptyTestName indicates the test Name field is empty.
	ErrEmptyTestName = errors.New("test name cannot be empty")

	// ErrInvalidTestStatus indicates an invalid TestStatus value.
	ErrInvalidTestStatus = errors.New("invalid test status")

	// ErrNegativeDuration indicates a test duration below zero.
	ErrNegativeDuration = errors.New("duration cannot be negative")
)
