package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// DocStatus describes overall pipeline progress for a document.
type DocStatus int

const (
	// DocStatusNotStarted means the document has never been submitted.
	DocStatusNotStarted DocStatus = iota
	// DocStatusProcessing means a pipeline run is in flight or suspended on a retry.
	DocStatusProcessing
	// DocStatusCompleted means every step finished successfully.
	DocStatusCompleted
	// DocStatusFailed means the retry budget was exhausted or a fatal error occurred.
	DocStatusFailed
)

func (s DocStatus) String() string {
	switch s {
	case DocStatusNotStarted:
		return "not_started"
	case DocStatusProcessing:
		return "processing"
	case DocStatusCompleted:
		return "completed"
	case DocStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StepName identifies a pipeline step. Step names double as registry keys.
type StepName string

const (
	StepDownload StepName = "download"
	StepEmbed    StepName = "embed"
	StepTag      StepName = "tag"
	StepStore    StepName = "store"
	StepComplete StepName = "complete"
)

// ChunkStatus describes how far a chunk has advanced through the pipeline.
// It only ever moves forward; a full reprocess deletes and recreates chunks.
type ChunkStatus int

const (
	// ChunkPending means the chunk exists but has no embedding yet.
	ChunkPending ChunkStatus = iota
	// ChunkEmbedded means the embedding has been written.
	ChunkEmbedded
	// ChunkTagged means tags have been written.
	ChunkTagged
	// ChunkStored means the chunk reached the external stores.
	ChunkStored
)

func (s ChunkStatus) String() string {
	switch s {
	case ChunkPending:
		return "pending"
	case ChunkEmbedded:
		return "embedding_done"
	case ChunkTagged:
		return "tags_done"
	case ChunkStored:
		return "stored"
	default:
		return "unknown"
	}
}

// DocumentMeta holds document identity fields captured during the download step.
// It is set once and never mutated afterwards.
type DocumentMeta struct {
	Project     string
	Company     string
	SourceKey   string
	ContentHash string
}

// ProcessingError is one entry in a document's append-only error history.
type ProcessingError struct {
	Step      StepName
	Message   string
	Timestamp time.Time
	Retryable bool
}

// DocumentState is the single persisted record describing pipeline progress
// for one document, keyed by source key. The pipeline executor is the sole
// writer.
type DocumentState struct {
	SourceKey       string
	Status          DocStatus
	CurrentStep     StepName
	Meta            *DocumentMeta
	DocumentTags    []string
	TotalChunks     int
	ProcessedChunks int
	Errors          []ProcessingError
	RetryCount      int
	DocumentID      string // catalog ID, set after the store step
	StartedAt       time.Time
	CompletedAt     time.Time
	FailedAt        time.Time
}

// NewDocumentState creates the state record for a freshly submitted document.
func NewDocumentState(sourceKey string) *DocumentState {
	return &DocumentState{
		SourceKey:   sourceKey,
		Status:      DocStatusProcessing,
		CurrentStep: StepDownload,
		StartedAt:   time.Now().UTC(),
	}
}

// RecordError appends an entry to the error history.
func (s *DocumentState) RecordError(step StepName, message string, retryable bool) {
	s.Errors = append(s.Errors, ProcessingError{
		Step:      step,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	})
}

// Progress returns completion as a percentage of chunks that reached the
// tagging phase or beyond. Zero before chunk boundaries are known.
func (s *DocumentState) Progress() float64 {
	if s.TotalChunks == 0 {
		return 0
	}
	return float64(s.ProcessedChunks) / float64(s.TotalChunks) * 100.0
}

// ChunkRecord is one chunk of a document, keyed by source key and index.
// Text and token count are immutable once created; embedding and tags are
// each set once by their respective steps.
type ChunkRecord struct {
	SourceKey  string
	Index      int
	Text       string
	TokenCount int
	Embedding  []float32
	Tags       []string
	Status     ChunkStatus
}

// ContentHash generates a deterministic hex digest of document content using
// BLAKE2b. Identical content always produces an identical hash, which is what
// the catalog uses to short-circuit unchanged re-ingestions.
func ContentHash(content []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
