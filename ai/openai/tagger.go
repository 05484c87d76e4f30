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


package openai

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/poiesic/docflow/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Tagger implements ai.Tagger using OpenAI-compatible chat APIs.
type Tagger struct {
	client  llms.Model
	maxTags int
	logger  *slog.Logger
}

// tagResponse is the wrapper structure for the LLM's JSON response.
type tagResponse struct {
	Tags []string `json:"tags"`
}

// newTagger is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTagger(config *ai.Config) (*Tagger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create OpenAI client configured for chat/tagging
	// Use "none" as token for local OpenAI-compatible services that don't require authentication
	client, err := openai.New(
		openai.WithBaseURL(config.TaggerHost),
		openai.WithToken("none"),
		openai.WithModel(config.TaggerModel),
	)
	if err != nil {
		return nil, err
	}

	return &Tagger{
		client:  client,
		maxTags: config.MaxTags,
		logger:  slog.Default().With("component", "openai-tagger"),
	}, nil
}

// NewTagger creates a new tagger using the provided configuration.
//
// Returns ai.Tagger interface to enforce abstraction.
func NewTagger(config *ai.Config) (ai.Tagger, error) {
	return newTagger(config)
}

// TagText generates tags for a single text using an LLM.
func (t *Tagger) TagText(ctx context.Context, text string) ([]string, error) {
	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(tagSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(text),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result tagResponse
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := t.client.GenerateContent(ctx, content, llms.WithTemperature(0.2), llms.WithJSONMode())
		if err != nil {
			t.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			t.logger.Debug("no choices returned from model")
			return []string{}, nil
		}

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(response.Choices[0].Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			t.logger.Warn("error parsing tagger response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		t.logger.Error("failed to parse tagger response after retries", "err", lastErr)
		return nil, lastErr
	}

	tags := SanitizeTags(result.Tags)
	if len(tags) > t.maxTags {
		tags = tags[:t.maxTags]
	}

	t.logger.Debug("generated tags", "raw", len(result.Tags), "kept", len(tags))
	return tags, nil
}

// TagTexts generates tags for multiple texts. The chat API has no batch
// endpoint, so texts are tagged sequentially; result order matches input.
func (t *Tagger) TagTexts(ctx context.Context, texts []string) ([][]string, error) {
	results := make([][]string, len(texts))
	for i, text := range texts {
		tags, err := t.TagText(ctx, text)
		if err != nil {
			return nil, err
		}
		results[i] = tags
	}
	return results, nil
}

var tagCharPattern = regexp.MustCompile(`[^a-z0-9_]`)
var tagUnderscorePattern = regexp.MustCompile(`_+`)

// SanitizeTags normalizes tags to lowercase snake_case and deduplicates them
// while preserving first-seen order. Empty results after normalization are
// dropped.
func SanitizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		tag := strings.ToLower(strings.TrimSpace(item))
		tag = strings.ReplaceAll(tag, "-", "_")
		tag = strings.ReplaceAll(tag, " ", "_")
		tag = tagCharPattern.ReplaceAllString(tag, "")
		tag = tagUnderscorePattern.ReplaceAllString(tag, "_")
		tag = strings.Trim(tag, "_")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
