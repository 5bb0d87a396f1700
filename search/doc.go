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


// Package search answers "which companies do what this query describes".
//
// The Engine embeds the query, scores it against every sentence of the
// current corpus snapshot with cosine similarity, reduces the sentence
// scores to one mean score per company and returns the top N companies with
// the sentences that support each match.
//
// Requests may name exclusion exemplars: any company with a sentence at
// least ExcludeThreshold similar to an exemplar is dropped before ranking.
//
// # Errors
//
//   - core.ErrEmptyQuery, core.ErrInvalidTopN: invalid request
//   - core.ErrNotReady: no corpus snapshot is loaded yet
//   - ai.ErrModelUnavailable and friends: the query could not be embedded
//
// No matches is an empty result, not an error.
//
// # Concurrency
//
// Searches read an immutable snapshot and need no locking. Any number of
// searches may run while a rebuild is in progress.
package search
