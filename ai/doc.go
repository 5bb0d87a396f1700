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


// Package ai provides the abstraction over the sentence-embedding model.
//
// The model is an injected capability: retrieval, scoring and ranking code
// depends only on the Embedder interface, so it can be exercised against
// fixed stub vectors without a model server.
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Failure Kinds
//
// Model failures are classified so callers can decide what to do next:
//
//   - ErrModelUnavailable: transient (rate limit, overload, timeout). Retry,
//     possibly with a smaller batch.
//   - ErrMalformedResponse: the response cannot be used (wrong count, empty
//     or ragged vectors). Do not retry.
//   - ErrModelRejected: the service refused the request permanently.
//
// Failed units are never replaced with zero vectors or skipped, since that
// would silently corrupt aggregate scores.
package ai
