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


package core

import "fmt"

// ValidateDocumentState validates a DocumentState according to domain rules.
//
// Validation rules:
//   - SourceKey must not be empty
//   - Status must be a known DocStatus
//   - CurrentStep must be a known StepName
//   - Chunk counters must be non-negative and ProcessedChunks <= TotalChunks
//
// NOT validated (set as the pipeline progresses):
//   - Meta (nil until the download step completes)
//   - DocumentID (empty until the store step completes)
//   - Timestamps
func ValidateDocumentState(state *DocumentState) error {
	if state == nil {
		return fmt.Errorf("%w: state is nil", ErrInvalidStatus)
	}

	if state.SourceKey == "" {
		return ErrEmptySourceKey
	}

	if err := ValidateDocStatus(state.Status); err != nil {
		return err
	}

	if err := ValidateStepName(state.CurrentStep); err != nil {
		return err
	}

	if state.TotalChunks < 0 || state.ProcessedChunks < 0 {
		return ErrNegativeChunkCount
	}

	// TotalChunks is 0 until the download step sets it; only enforce the
	// ordering once chunk boundaries are known.
	if state.TotalChunks > 0 && state.ProcessedChunks > state.TotalChunks {
		return ErrProcessedExceedsTotal
	}

	return nil
}

// ValidateChunkRecord validates a ChunkRecord according to domain rules.
//
// NOT validated (populated by steps):
//   - Embedding (empty until the embed step runs)
//   - Tags (nil until the tag step runs)
func ValidateChunkRecord(record *ChunkRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidChunkStatus)
	}

	if record.SourceKey == "" {
		return ErrEmptySourceKey
	}

	if record.Index < 0 {
		return ErrNegativeChunkIndex
	}

	if record.Text == "" {
		return ErrEmptyChunkText
	}

	return ValidateChunkStatus(record.Status)
}

// ValidateDocStatus validates that a DocStatus has a known value.
func ValidateDocStatus(status DocStatus) error {
	switch status {
	case DocStatusNotStarted, DocStatusProcessing, DocStatusCompleted, DocStatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidStatus, status)
	}
}

// ValidateStepName validates that a StepName has a known value.
func ValidateStepName(step StepName) error {
	switch step {
	case StepDownload, StepEmbed, StepTag, StepStore, StepComplete:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStep, step)
	}
}

// ValidateChunkStatus validates that a ChunkStatus has a known value.
func ValidateChunkStatus(status ChunkStatus) error {
	switch status {
	case ChunkPending, ChunkEmbedded, ChunkTagged, ChunkStored:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidChunkStatus, status)
	}
}
