// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Tagger,
// and ai.Provider for use in unit tests. The mocks allow tests to run without
// external AI service dependencies and enable controlled, deterministic behavior.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	embedding, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockTagger := mock.NewMockTagger()
//	mockTagger.TagTextFunc = func(ctx context.Context, text string) ([]string, error) {
//	    return []string{"fixed_tag"}, nil
//	}
//
//	// Check call counts
//	count := mockTagger.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEmbedder: Returns deterministic vectors based on text hash
//   - MockTagger: Derives simple tags from words in text
//   - MockProvider: Aggregates mock embedder and tagger
package mock
