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

import "errors"

var (
	// ErrStateStoreRequired indicates a nil state store was provided.
	ErrStateStoreRequired = errors.New("state store is required")

	// ErrChunkStoreRequired indicates a nil chunk store was provided.
	ErrChunkStoreRequired = errors.New("chunk store is required")

	// ErrVectorIndexRequired indicates a nil vector index was provided.
	ErrVectorIndexRequired = errors.New("vector index is required")

	// ErrCatalogRequired indicates a nil catalog was provided.
	ErrCatalogRequired = errors.New("catalog is required")

	// ErrFetcherRequired indicates a nil content fetcher was provided.
	ErrFetcherRequired = errors.New("content fetcher is required")

	// ErrChunkerRequired indicates a nil chunker was provided.
	ErrChunkerRequired = errors.New("chunker is required")

	// ErrProviderRequired indicates a nil AI provider was provided.
	ErrProviderRequired = errors.New("ai provider is required")

	// ErrUnknownStep indicates a document's current step has no registered handler.
	ErrUnknownStep = errors.New("unknown pipeline step")

	// ErrNoSteps indicates a registry was constructed with no steps.
	ErrNoSteps = errors.New("registry requires at least one step")

	// ErrDuplicateStep indicates the same step name was registered twice.
	ErrDuplicateStep = errors.New("duplicate step name")

	// ErrDocumentNotFound indicates no persisted state exists for the source key.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrAlreadyProcessing indicates the document has an active execution.
	ErrAlreadyProcessing = errors.New("document is already processing")

	// ErrMissingMetadata indicates the store step ran before metadata was set.
	ErrMissingMetadata = errors.New("document metadata missing")

	// ErrMissingEmbedding indicates a chunk reached the store step without a vector.
	ErrMissingEmbedding = errors.New("chunk embedding missing")

	// ErrBatchSizeMismatch indicates an adapter returned a result batch whose
	// length does not match the input batch.
	ErrBatchSizeMismatch = errors.New("adapter returned mismatched batch size")

	// ErrManagerClosed indicates the manager has been shut down.
	ErrManagerClosed = errors.New("manager is closed")
)
