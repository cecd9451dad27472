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

package testtree

import "errors"

var (
	// ErrTestFinderRequired is returned when a collector is created without a test finder.
	ErrTestFinderRequired = errors.New("test occurrence finder required")

	// ErrLeafLocatorRequired is returned when a request selects no tests.
	ErrLeafLocatorRequired = errors.New("either testOccurrences or build must be specified")

	// ErrInvalidScopeType is returned for a scopeType other than suite, package, class or test.
	ErrInvalidScopeType = errors.New("invalid scope type")
)
