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


// Package storage provides the storage abstraction layer for quarry.
//
// This package defines repository interfaces that decouple the finders from
// the storage implementation. Finders only need lazy, ordered candidate
// streams, so every repository exposes its collections as iter.Seq2 scans
// in addition to the usual point lookups.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - Repository: Transaction support and resource release
//   - BuildRepository: Builds, scanned newest first, optionally by build type
//   - TestOccurrenceRepository: Test runs, scanned in ID order, optionally by build
//   - CheckpointRepository: Import progress per source
//
// # Usage
//
// Create repositories on a BadgerDB backend:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	builds, err := badger.NewBuildRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer repos.Close()
//
// # Scans
//
// A scan holds a read transaction while it is being iterated. Breaking out of
// the loop ends the transaction. Scans observe a consistent snapshot and do
// not see writes made after iteration started.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context. Scans check the context
// between items and yield its error when it is done.
package storage
