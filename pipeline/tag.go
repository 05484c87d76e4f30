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

// tagStep tags one batch of embedded chunks, mirroring the batching shape
// of embedStep. Chunk tags are also merged into the document-level tag set.
func tagStep(ctx context.Context, sc *StepContext) (Signal, error) {
	state := sc.State

	embedded, err := sc.Chunks.ListByStatus(ctx, state.SourceKey, core.ChunkEmbedded)
	if err != nil {
		return 0, err
	}

	if len(embedded) == 0 {
		if err := sc.syncProgress(ctx); err != nil {
			return 0, err
		}
		return SignalAdvance, nil
	}

	batch := embedded
	if len(batch) > sc.BatchSize {
		batch = batch[:sc.BatchSize]
	}

	texts := make([]string, len(batch))
	for i, chunk := range batch {
		texts[i] = chunk.Text
	}

	tagLists, err := sc.Tagger.TagTexts(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(tagLists) != len(batch) {
		return 0, ErrBatchSizeMismatch
	}

	for i, chunk := range batch {
		chunk.Tags = tagLists[i]
		chunk.Status = core.ChunkTagged
	}
	if err := sc.Chunks.PutBatch(ctx, batch); err != nil {
		return 0, err
	}

	state.DocumentTags = mergeTags(state.DocumentTags, tagLists)

	if err := sc.syncProgress(ctx); err != nil {
		return 0, err
	}

	sc.Logger.Debug("tagged chunk batch",
		"sourceKey", state.SourceKey,
		"batch", len(batch),
		"remaining", len(embedded)-len(batch))

	return SignalContinue, nil
}

// mergeTags appends new tag names to the aggregate set, preserving
// first-seen order.
func mergeTags(existing []string, tagLists [][]string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, tag := range existing {
		seen[tag] = struct{}{}
	}
	for _, tags := range tagLists {
		for _, tag := range tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			existing = append(existing, tag)
		}
	}
	return existing
}
