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

// Package testtree aggregates test occurrences into a scope tree of suites,
// packages, classes and tests.
//
// A tree request is itself a locator:
//
//	build:(buildType:Core_Tests,count:5),scopeType:class,maxChildren:10
//	testOccurrences:(status:FAILURE,count:any),orderBy:name
//	build:(id:42),subTreeRootId:(tests/unit/org.example)
//
// The leaves are selected with the test occurrence finder. One tree is built
// per build on a worker pool and the trees are merged, so every node carries
// the counters of all matched runs beneath it.
package testtree
