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


// Package storage provides the storage abstraction layer for docflow.
//
// It defines the store interfaces the pipeline depends on, decoupled from any
// particular backend:
//
//   - ChunkStore: per-chunk records keyed by source key and index
//   - StateStore: the single DocumentState record per document
//   - VectorIndex: chunk embeddings keyed by a deterministic ID
//
// Constructors in backend packages return these interfaces so consumers never
// couple to backend specifics, and tests can substitute in-memory stores.
//
// Everything the pipeline needs to resume after a crash lives behind these
// interfaces; the executor holds no state of its own between runs.
//
// All store implementations must be thread-safe, and all methods accept a
// context.Context for cancellation.
package storage
