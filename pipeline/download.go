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

// downloadStep fetches the raw document, computes its content hash, splits
// it into chunks, and persists all chunk records as pending. Re-running the
// step (after a retry) rebuilds the chunk set from scratch, so partially
// written batches from a failed attempt cannot leak through.
func downloadStep(ctx context.Context, sc *StepContext) (Signal, error) {
	state := sc.State

	content, err := sc.Fetcher.Fetch(ctx, state.SourceKey)
	if err != nil {
		return 0, err
	}

	hash := core.ContentHash(content)
	if state.Meta == nil {
		state.Meta = &core.DocumentMeta{SourceKey: state.SourceKey}
	}
	state.Meta.ContentHash = hash

	chunks := sc.Chunker.Split(state.SourceKey, string(content))

	// Drop any leftovers from a previous attempt before writing the new set.
	if err := sc.Chunks.DeleteAll(ctx, state.SourceKey); err != nil {
		return 0, err
	}
	if len(chunks) > 0 {
		if err := sc.Chunks.PutBatch(ctx, chunks); err != nil {
			return 0, err
		}
	}

	state.TotalChunks = len(chunks)
	state.ProcessedChunks = 0

	sc.Logger.Info("document downloaded and chunked",
		"sourceKey", state.SourceKey,
		"contentHash", hash,
		"chunks", len(chunks))

	return SignalAdvance, nil
}
