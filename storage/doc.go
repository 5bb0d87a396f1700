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


// Package storage provides the persistence layer for corpus snapshots.
//
// A snapshot is serialized with MUS primitives into a single versioned blob:
// the format version comes first, so a reader can reject blobs it does not
// understand with ErrUnsupportedVersion and the caller can rebuild.
//
// # Constructor Return Type Pattern
//
// Public constructors of backend packages return the SnapshotRepository
// interface:
//
//	repo, err := badger.NewSnapshotRepository(backend)  // returns storage.SnapshotRepository
//
// Consumers depend only on the interface, so tests can substitute an
// in-memory backend without modification.
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	repo, err := badger.NewSnapshotRepository(backend)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	snapshot, err := repo.LoadSnapshot(ctx)
//	if errors.Is(err, storage.ErrNotFound) {
//	    // build the corpus first
//	}
//
// # Thread Safety
//
// Repository implementations must be thread-safe. Saving a snapshot swaps
// the current pointer only after the new blob is fully written.
package storage
