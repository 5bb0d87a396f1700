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


// Package config loads bizmatch settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file with [embedding], [corpus], [search] and [server] tables
//  3. Environment variables, optionally seeded from a .env file
//
// Example file:
//
//	[embedding]
//	host = "http://localhost:11434/v1"
//	model = "all-mpnet-base-v2"
//	batch_size = 64
//	timeout = "2m"
//
//	[corpus]
//	source = "data/companies.csv"
//	db = "bizmatch.db"
//
//	[search]
//	top_n = 5
//	exclude_threshold = 0.6
//
//	[server]
//	addr = ":8080"
//
// Recognized environment variables are BIZMATCH_EMBEDDING_HOST,
// BIZMATCH_EMBEDDING_MODEL, BIZMATCH_API_KEY (falling back to
// OPENAI_API_KEY), BIZMATCH_SOURCE and BIZMATCH_DB.
package config
