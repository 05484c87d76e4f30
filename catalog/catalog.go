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


// Package catalog defines the relational catalog the pipeline publishes
// finished documents into.
//
// The catalog is keyed by natural key (source key), not by synthetic id:
// submitting the same source key again updates the existing row. A content
// hash on the document row lets writers detect unchanged content and skip
// the chunk rewrite entirely.
package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates no catalog document exists for the given key.
	ErrNotFound = errors.New("document not found")

	// ErrEmptySourceKey indicates a document was submitted without a source key.
	ErrEmptySourceKey = errors.New("source key cannot be empty")
)

// Document is a catalog document row plus its document-level tags.
type Document struct {
	ID          string
	SourceKey   string
	Project     string
	Company     string
	ContentHash string
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chunk is one chunk row belonging to a document.
type Chunk struct {
	Position   int
	Content    string
	TokenCount int
	Tags       []string
}

// UpsertResult reports the outcome of an upsert.
type UpsertResult struct {
	// DocumentID is the catalog id of the document, existing or new.
	DocumentID string

	// Unchanged is true when the submitted content hash matched the stored
	// one and the chunk rows were left untouched.
	Unchanged bool
}

// Catalog stores finished documents, their chunks, and their tags.
type Catalog interface {
	// GetDocument returns the document for sourceKey, or (nil, nil) if no
	// document exists.
	GetDocument(ctx context.Context, sourceKey string) (*Document, error)

	// UpsertDocument writes a document and its chunks keyed by source key.
	// If a document with the same source key and content hash already
	// exists, the existing id is returned with Unchanged=true and no rows
	// are modified. Otherwise the document row is inserted or updated and
	// the chunk rows are replaced in a single transaction. Tag names are
	// resolved to tag rows via case-insensitive get-or-create.
	UpsertDocument(ctx context.Context, doc *Document, chunks []Chunk) (*UpsertResult, error)

	// GetChunks returns the chunk rows for a document id, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]Chunk, error)

	// DeleteDocument removes the document for sourceKey together with its
	// chunks and tag associations. Deleting a missing document is not an
	// error.
	DeleteDocument(ctx context.Context, sourceKey string) error

	// ListDocuments returns all catalog documents.
	ListDocuments(ctx context.Context) ([]Document, error)

	// Close releases the underlying database handle.
	Close() error
}
