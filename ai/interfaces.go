package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. The returned slice contains embeddings in the same order as the
	// input texts and always has the same length. Empty input is allowed and
	// returns an empty result.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Tagger generates descriptive tags for document content.
// Implementations must be thread-safe for concurrent use.
type Tagger interface {
	// TagText generates tags for a single text. Tags are normalized to
	// lowercase snake_case and deduplicated, preserving first-seen order.
	// Returns an empty slice if no tags apply.
	TagText(ctx context.Context, text string) ([]string, error)

	// TagTexts generates tags for multiple texts in a batch. The returned
	// slice contains tag lists in the same order as the input texts and
	// always has the same length. Empty input is allowed.
	TagTexts(ctx context.Context, texts []string) ([][]string, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Tagger instances,
// ensuring they share configuration and resources appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Tagger returns the tag generation service.
	Tagger() Tagger

	// Close releases resources held by the provider and its services.
	Close() error
}
