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


// Package openai provides the embedding model client for OpenAI-compatible APIs.
//
// This package implements ai.Embedder using the langchaingo library to
// communicate with OpenAI or OpenAI-compatible services (such as Ollama,
// LocalAI, vLLM or text-embeddings-inference serving a sentence-transformers
// model).
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithEmbeddingHost("http://localhost:8080"),  // /v1 added automatically
//	    ai.WithEmbeddingModel("all-mpnet-base-v2"),
//	)
//
//	embedder, err := openai.NewEmbedder(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	vectors, err := embedder.EmbedTexts(ctx, []string{"provides consulting services."})
//
// # Errors
//
// Client errors are passed through ai.Classify, so rate limits and server
// overload surface as ai.ErrModelUnavailable while authentication or model
// errors surface as ai.ErrModelRejected.
package openai
