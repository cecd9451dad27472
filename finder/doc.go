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


// Package finder implements the generic locator-driven lookup engine.
//
// A Finder pairs a Source, which knows how to enumerate candidates of one
// item type and how to turn locator dimensions into filters, with the
// machinery every lookup shares: locator parsing, logical combinators
// (and, or, not, item), duplicate elimination (unique), paging (start, count)
// and the lookup limit that bounds how many candidates a single call scans.
//
// The engine is synchronous. A Finder holds no per-call state and may be used
// from several goroutines as long as its Source can.
package finder
