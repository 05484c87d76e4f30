package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/poiesic/docflow/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunker(t *testing.T, maxTokens int) *Chunker {
	t.Helper()
	c, err := New(maxTokens)
	require.NoError(t, err)
	return c
}

func TestSplit_Empty(t *testing.T) {
	c := newTestChunker(t, 100)
	assert.Empty(t, c.Split("doc", ""))
}

func TestSplit_HeadingContext(t *testing.T) {
	c := newTestChunker(t, 200)

	md := strings.Join([]string{
		"# Title",
		"Some intro text.",
		"## Subtitle",
		"More text here.",
		"### Section",
		"Even more text.",
	}, "\n")

	chunks := c.Split("doc", md)
	require.Len(t, chunks, 3)

	assert.True(t, strings.HasPrefix(chunks[0].Text, "Title\n"))
	assert.True(t, strings.HasPrefix(chunks[1].Text, "Title\nSubtitle\n"))
	assert.True(t, strings.HasPrefix(chunks[2].Text, "Title\nSubtitle\nSection\n"))
	assert.Contains(t, chunks[2].Text, "Even more text.")
}

func TestSplit_HeadingLevelsReset(t *testing.T) {
	c := newTestChunker(t, 200)

	md := strings.Join([]string{
		"# One",
		"## Sub",
		"body a",
		"# Two",
		"body b",
	}, "\n")

	chunks := c.Split("doc", md)
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[1].Text, "Two\n"), "new h1 must clear the old h2")
	assert.NotContains(t, chunks[1].Text, "Sub")
}

func TestSplit_StableIndicesAndStatus(t *testing.T) {
	c := newTestChunker(t, 200)

	md := "# A\nfirst\n# B\nsecond\n# C\nthird"
	chunks := c.Split("doc", md)
	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, "doc", chunk.SourceKey)
		assert.Equal(t, core.ChunkPending, chunk.Status)
		assert.Positive(t, chunk.TokenCount)
	}
}

func TestSplit_OversizeSectionSplitsWithParts(t *testing.T) {
	c := newTestChunker(t, 20)

	var sentences []string
	for i := 0; i < 40; i++ {
		sentences = append(sentences, fmt.Sprintf("Sentence number %d.", i))
	}
	md := "# Title\n" + strings.Join(sentences, " ")

	chunks := c.Split("doc", md)
	require.Greater(t, len(chunks), 1, "long section must be split")
	for i, chunk := range chunks {
		assert.True(t, strings.HasPrefix(chunk.Text, fmt.Sprintf("Title - part %d\n", i+1)))
	}
}

func TestSplit_TokenBudgetRespected(t *testing.T) {
	budget := 30
	c := newTestChunker(t, budget)

	var sentences []string
	for i := 0; i < 30; i++ {
		sentences = append(sentences, fmt.Sprintf("Short sentence %d.", i))
	}
	md := "# T\n" + strings.Join(sentences, " ")

	for _, chunk := range c.Split("doc", md) {
		// Header adds a handful of tokens on top of the packed body.
		assert.LessOrEqual(t, c.CountTokens(chunk.Text), budget+10)
	}
}

func TestHeadingLine(t *testing.T) {
	level, title := headingLine("## Section Title")
	assert.Equal(t, 2, level)
	assert.Equal(t, "Section Title", title)

	level, _ = headingLine("#### too deep")
	assert.Zero(t, level)

	level, _ = headingLine("plain text")
	assert.Zero(t, level)

	level, _ = headingLine("#missing space")
	assert.Zero(t, level)
}

func TestSplitIntoSentences(t *testing.T) {
	got := splitIntoSentences("One. Two! Three? Four")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four"}, got)

	got = splitIntoSentences("Para one.\n\nPara two.")
	assert.Equal(t, []string{"Para one.", "Para two."}, got)

	assert.Empty(t, splitIntoSentences(""))
}
