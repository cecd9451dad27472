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


package scopetree

import "errors"

var (
	// ErrRootMismatch is returned when merging trees with different roots.
	ErrRootMismatch = errors.New("trees have different roots")

	// ErrNodeNotFound is returned when a node id is not in the tree.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidPath is returned for an empty leaf path or a scope without a name.
	ErrInvalidPath = errors.New("invalid scope path")

	// ErrMixedNode is returned when a node would both hold leaf data and have children.
	ErrMixedNode = errors.New("node is both a leaf and an intermediate scope")

	// ErrInvalidOrder is returned for an orderBy value that cannot be parsed.
	ErrInvalidOrder = errors.New("invalid order")
)
