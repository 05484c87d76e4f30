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


// Package ai provides abstractions for the AI services docflow depends on.
//
// It defines the Embedder and Tagger interfaces plus a Provider that bundles
// them, keeping the pipeline decoupled from any concrete model client.
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: deterministic test doubles, no external dependencies
//
// Public constructors in implementation packages return the interface types
// to enforce the abstraction; the mock package returns concrete types so
// tests can inject behavior and assert on call counts.
package ai
