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


// Package corpus builds and holds the embedded company corpus.
//
// A Builder normalizes each description into sentences, drops
// non-functional sentences (location, founding, renaming boilerplate) and
// embeds the rest in one batched call. The result is an immutable Snapshot
// whose Units and Vectors are index aligned.
//
// Every snapshot carries a Fingerprint over the format version, the model
// name, the filter phrases and every entity record. A persisted snapshot is
// only reused when its fingerprint matches the current inputs.
//
// # Entity Status
//
// Entities that cannot be ranked are not errors. The snapshot records why:
//
//   - core.StatusEmptyDescription: description empty or missing
//   - core.StatusNoFunctionalUnits: every sentence was filtered out
//   - core.StatusUnknown: the entity was never ingested
//
// # Concurrency
//
// Cache publishes snapshots through an atomic pointer. A rebuild runs to
// completion before it is swapped in, so concurrent searches see either the
// old or the new snapshot.
package corpus
