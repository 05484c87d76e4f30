package mock

import (
	"context"
	"strings"
)

// MockTagger is a test double for ai.Tagger.
// It allows custom behavior injection via function fields.
type MockTagger struct {
	// TagTextFunc is called by TagText if set.
	// If nil, uses default simple word tagging.
	TagTextFunc func(ctx context.Context, text string) ([]string, error)

	// TagTextsFunc is called by TagTexts if set.
	// If nil, TagText is called for each input.
	TagTextsFunc func(ctx context.Context, texts []string) ([][]string, error)

	callCount int
}

// NewMockTagger creates a mock tagger with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockTagger().
func NewMockTagger() *MockTagger {
	return &MockTagger{}
}

// TagText generates simple mock tags from text.
// Default behavior: lowercases the first few words and uses them as tags.
func (m *MockTagger) TagText(ctx context.Context, text string) ([]string, error) {
	m.callCount++

	if m.TagTextFunc != nil {
		return m.TagTextFunc(ctx, text)
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	tags := make([]string, 0, 4)
	for _, word := range words {
		if len(tags) >= 4 {
			break
		}

		word = strings.Trim(word, ".,!?;:\"'()[]{}")
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}

		seen[word] = struct{}{}
		tags = append(tags, word)
	}

	return tags, nil
}

// TagTexts generates mock tags for multiple texts.
func (m *MockTagger) TagTexts(ctx context.Context, texts []string) ([][]string, error) {
	m.callCount++

	if m.TagTextsFunc != nil {
		return m.TagTextsFunc(ctx, texts)
	}

	results := make([][]string, len(texts))
	for i, text := range texts {
		tags, err := m.TagText(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = tags
	}
	return results, nil
}

// CallCount returns the number of times any method was called.
func (m *MockTagger) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockTagger) Reset() {
	m.callCount = 0
	m.TagTextFunc = nil
	m.TagTextsFunc = nil
}
