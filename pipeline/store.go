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
	"fmt"

	"github.com/poiesic/docflow/catalog"
	"github.com/poiesic/docflow/core"
	"github.com/poiesic/docflow/storage"
)

// storeStep publishes a finished document in two phases. Phase one upserts
// every chunk vector into the vector index under a deterministic id, which
// is safe to repeat. Phase two writes the document and chunk rows to the
// catalog. A catalog failure after phase one is fine: re-running the step
// re-upserts the same vector ids, so no cleanup pass is needed.
func storeStep(ctx context.Context, sc *StepContext) (Signal, error) {
	state := sc.State

	if state.Meta == nil || state.Meta.ContentHash == "" {
		return 0, ErrMissingMetadata
	}

	chunks, err := sc.Chunks.ListAll(ctx, state.SourceKey)
	if err != nil {
		return 0, err
	}
	if len(chunks) != state.TotalChunks {
		return 0, fmt.Errorf("chunk store holds %d chunks, state expects %d", len(chunks), state.TotalChunks)
	}

	// Phase 1: vector index.
	for _, chunk := range chunks {
		if chunk.Embedding == nil {
			return 0, fmt.Errorf("%w: chunk %d", ErrMissingEmbedding, chunk.Index)
		}
		entry := &storage.VectorEntry{
			ID:        VectorID(state.SourceKey, chunk.Index),
			Vector:    chunk.Embedding,
			SourceKey: state.SourceKey,
			Index:     chunk.Index,
		}
		if err := sc.Vectors.Upsert(ctx, entry); err != nil {
			return 0, err
		}
	}

	// Phase 2: relational catalog.
	doc := &catalog.Document{
		SourceKey:   state.SourceKey,
		Project:     state.Meta.Project,
		Company:     state.Meta.Company,
		ContentHash: state.Meta.ContentHash,
		Tags:        state.DocumentTags,
	}
	rows := make([]catalog.Chunk, len(chunks))
	for i, chunk := range chunks {
		rows[i] = catalog.Chunk{
			Position:   chunk.Index,
			Content:    chunk.Text,
			TokenCount: chunk.TokenCount,
			Tags:       chunk.Tags,
		}
	}

	result, err := sc.Catalog.UpsertDocument(ctx, doc, rows)
	if err != nil {
		return 0, err
	}
	state.DocumentID = result.DocumentID

	for _, chunk := range chunks {
		chunk.Status = core.ChunkStored
	}
	if len(chunks) > 0 {
		if err := sc.Chunks.PutBatch(ctx, chunks); err != nil {
			return 0, err
		}
	}

	if err := sc.syncProgress(ctx); err != nil {
		return 0, err
	}

	sc.Logger.Info("document stored",
		"sourceKey", state.SourceKey,
		"documentId", result.DocumentID,
		"unchanged", result.Unchanged,
		"chunks", len(chunks))

	return SignalAdvance, nil
}

// completeStep is the terminal step. The executor marks the document
// completed when it advances into this step, so there is nothing to do.
func completeStep(ctx context.Context, sc *StepContext) (Signal, error) {
	return SignalAdvance, nil
}

// VectorID is the deterministic vector index id for a chunk.
func VectorID(sourceKey string, index int) string {
	return fmt.Sprintf("%s:%d", sourceKey, index)
}
