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

import "errors"

// Domain validation errors
var (
	// ErrEmptySourceKey indicates the SourceKey field is empty.
	ErrEmptySourceKey = errors.New("source key cannot be empty")

	// ErrInvalidStatus indicates an unknown DocStatus value.
	ErrInvalidStatus = errors.New("invalid document status")

	// ErrInvalidStep indicates an unknown StepName value.
	ErrInvalidStep = errors.New("invalid step name")

	// ErrInvalidChunkStatus indicates an unknown ChunkStatus value.
	ErrInvalidChunkStatus = errors.New("invalid chunk status")

	// ErrNegativeChunkCount indicates a negative chunk counter.
	ErrNegativeChunkCount = errors.New("chunk counts cannot be negative")

	// ErrProcessedExceedsTotal indicates processed chunks exceed the known total.
	ErrProcessedExceedsTotal = errors.New("processed chunks cannot exceed total chunks")

	// ErrEmptyChunkText indicates the chunk Text field is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")

	// ErrNegativeChunkIndex indicates a negative chunk index.
	ErrNegativeChunkIndex = errors.New("chunk index cannot be negative")
)
