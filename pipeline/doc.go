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


// Package pipeline is the document processing state machine.
//
// A document moves through a fixed, linear series of steps: download,
// embed, tag, store, complete. The Registry names the steps and derives
// each step's successor from registration order. The Executor dispatches
// the current step's handler in an explicit loop and persists the
// DocumentState after every invocation, so a crash at any point resumes
// from the last persisted step and the chunk store's recorded statuses.
//
// Batch steps (embed, tag) process a bounded number of chunks per handler
// invocation and signal the executor to run them again until no eligible
// chunks remain. Failures route through a single path that classifies them
// as retryable or fatal; retryable failures suspend the run and re-enter
// after an exponential backoff, bounded by the retry cap.
//
// The Manager wraps the executor with the external triggers (start,
// resume, reprocess, status, delete), serializes executions per document,
// and fans independent documents out over a worker pool.
package pipeline
