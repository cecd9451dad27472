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


// Package scopetree builds hierarchical summaries such as
// package/class/test trees out of leaf paths.
//
// A Tree is created from a root Scope and a list of leaves, each leaf being a
// path of scopes below the root together with the raw data found there.
// Every distinct path prefix becomes a node. Counters are computed for the
// leaves and rolled up so that every node holds the combination of all leaf
// counters beneath it. Trees built from disjoint parts of the data can be
// merged, and a tree can be sliced for display with per-level ordering and
// a cap on the number of children.
//
// A Tree is not safe for concurrent mutation. Build separate trees in
// separate goroutines and merge them afterwards.
package scopetree
