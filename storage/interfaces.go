package storage

import (
	"context"

	"github.com/poiesic/docflow/core"
)

// ChunkStore provides keyed persistence for per-chunk records.
// Implementations must be thread-safe and support concurrent access;
// the pipeline relies on chunk status values surviving a crash so that a
// resumed step can pick up exactly where the last run stopped.
type ChunkStore interface {
	// Get retrieves a single chunk by document source key and index.
	// Returns nil, nil if the chunk does not exist.
	Get(ctx context.Context, sourceKey string, index int) (*core.ChunkRecord, error)

	// Put writes a single chunk record, replacing any existing record
	// with the same key.
	Put(ctx context.Context, record *core.ChunkRecord) error

	// PutBatch writes multiple chunk records in a single transaction.
	// Either all records are persisted or none are, so a retried step
	// never observes a half-written batch.
	PutBatch(ctx context.Context, records []*core.ChunkRecord) error

	// ListByStatus returns the document's chunks currently in the given
	// status, sorted by index.
	ListByStatus(ctx context.Context, sourceKey string, status core.ChunkStatus) ([]*core.ChunkRecord, error)

	// ListAll returns all of the document's chunks, sorted by index.
	ListAll(ctx context.Context, sourceKey string) ([]*core.ChunkRecord, error)

	// CountByStatus returns how many of the document's chunks are in each
	// status. Cheaper than listing when only progress numbers are needed.
	CountByStatus(ctx context.Context, sourceKey string) (map[core.ChunkStatus]int, error)

	// DeleteAll removes every chunk belonging to the document.
	DeleteAll(ctx context.Context, sourceKey string) error

	// Close closes the store and releases resources.
	Close() error
}

// StateStore persists the single DocumentState record per document.
// The pipeline executor is the sole writer.
type StateStore interface {
	// Get retrieves the state for a document.
	// Returns nil, nil if no state exists.
	Get(ctx context.Context, sourceKey string) (*core.DocumentState, error)

	// Put writes the state, replacing any existing record.
	Put(ctx context.Context, state *core.DocumentState) error

	// Delete removes the state record. Deleting a missing record is not
	// an error.
	Delete(ctx context.Context, sourceKey string) error

	// List returns the states of all known documents.
	List(ctx context.Context) ([]*core.DocumentState, error)

	// Close closes the store and releases resources.
	Close() error
}

// VectorEntry is one row in the vector index.
type VectorEntry struct {
	ID        string
	Vector    []float32
	SourceKey string
	Index     int
}

// VectorMatch is a similarity search hit.
type VectorMatch struct {
	Entry *VectorEntry
	Score float32
}

// VectorIndex stores chunk embeddings keyed by a deterministic ID.
// Upsert must be idempotent: re-upserting an existing ID overwrites it,
// which is what makes the two-phase store step safe to re-run.
type VectorIndex interface {
	// Upsert writes or overwrites an entry.
	Upsert(ctx context.Context, entry *VectorEntry) error

	// Delete removes every entry belonging to the document.
	Delete(ctx context.Context, sourceKey string) error

	// Search returns entries with similarity >= minSimilarity against the
	// query vector, ordered by score descending, up to limit results.
	// Vectors are expected to be normalized; the score is a dot product.
	Search(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*VectorMatch, error)

	// Close closes the index and releases resources.
	Close() error
}
