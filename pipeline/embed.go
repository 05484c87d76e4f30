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

	"github.com/poiesic/docflow/core"
)

// embedStep embeds one batch of pending chunks. When no pending chunks
// remain it advances; otherwise it writes the batch back atomically as
// embedding_done and asks to be run again.
func embedStep(ctx context.Context, sc *StepContext) (Signal, error) {
	state := sc.State

	pending, err := sc.Chunks.ListByStatus(ctx, state.SourceKey, core.ChunkPending)
	if err != nil {
		return 0, err
	}

	if len(pending) == 0 {
		if err := sc.syncProgress(ctx); err != nil {
			return 0, err
		}
		return SignalAdvance, nil
	}

	batch := pending
	if len(batch) > sc.BatchSize {
		batch = batch[:sc.BatchSize]
	}

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	vectors, err := sc.Embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(batch) {
		return 0, ErrBatchSizeMismatch
	}

	for i, chunk := range batch {
		chunk.Embedding = vectors[i]
		chunk.Status = core.ChunkEmbedded
	}
	if err := sc.Chunks.PutBatch(ctx, batch); err != nil {
		return 0, err
	}

	if err := sc.syncProgress(ctx); err != nil {
		return 0, err
	}

	sc.Logger.Debug("embedded chunk batch",
		"sourceKey", state.SourceKey,
		"batch", len(batch),
		"remaining", len(pending)-len(batch))

	return SignalContinue, nil
}
