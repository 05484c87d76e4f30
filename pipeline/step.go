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


package pipeline

import (
	"context"
	"log/slog"

	"github.com/poiesic/docflow/ai"
	"github.com/poiesic/docflow/catalog"
	"github.com/poiesic/docflow/chunker"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/fetch"
	"github.com/poiesic/docflow/storage"
)

// Signal is what a step handler reports back to the executor on success.
type Signal int

const (
	// SignalAdvance moves the document to the next step.
	SignalAdvance Signal = iota

	// SignalContinue re-runs the same step. Used by batch steps that still
	// have chunks left to process.
	SignalContinue
)

// Handler executes one step for one document. Handlers mutate the state in
// place; the executor persists it after each invocation. A returned error
// routes through the fail path and must leave the chunk store consistent,
// so a retry can resume from the recorded chunk statuses.
type Handler func(ctx context.Context, sc *StepContext) (Signal, error)

// StepContext carries the document state and every collaborator a step
// handler may need. One is built per executor run and shared across the
// run's handler invocations.
type StepContext struct {
	State *core.DocumentState

	Chunks   storage.ChunkStore
	Vectors  storage.VectorIndex
	Catalog  catalog.Catalog
	Fetcher  fetch.Fetcher
	Chunker  *chunker.Chunker
	Embedder ai.Embedder
	Tagger   ai.Tagger

	BatchSize int

	Logger *slog.Logger
}

// syncProgress recomputes processedChunks from the chunk store. Only chunks
// that finished tagging count; embedding completion alone does not move the
// counter.
func (sc *StepContext) syncProgress(ctx context.Context) error {
	counts, err := sc.Chunks.CountByStatus(ctx, sc.State.SourceKey)
	if err != nil {
		return err
	}
	sc.State.ProcessedChunks = counts[core.ChunkTagged] + counts[core.ChunkStored]
	return nil
}
