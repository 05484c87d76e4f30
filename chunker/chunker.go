package chunker

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/docflow/core"
)

const (
	// DefaultMaxTokens is the per-chunk token budget.
	DefaultMaxTokens = 800

	// encodingName is the tokenizer used for the budget. Must match the
	// embedding model family closely enough that chunks fit its window.
	encodingName = "cl100k_base"
)

// Chunker splits markdown into ordered, token-bounded chunks. Each chunk
// carries a context header built from the markdown heading path, so a chunk
// remains meaningful when retrieved in isolation.
type Chunker struct {
	maxTokens int
	enc       *tiktoken.Tiktoken
}

// New creates a Chunker with the given token budget.
// A budget <= 0 falls back to DefaultMaxTokens.
func New(maxTokens int) (*Chunker, error) {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("loading %s encoding: %w", encodingName, err)
	}
	return &Chunker{maxTokens: maxTokens, enc: enc}, nil
}

// CountTokens returns the token count of text under the chunker's encoding.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Split chunks markdown into ChunkRecords for the given document, assigning
// stable ordinal indices starting at 0. All records start in ChunkPending.
func (c *Chunker) Split(sourceKey, markdown string) []*core.ChunkRecord {
	var records []*core.ChunkRecord
	for _, text := range c.splitMarkdown(markdown) {
		records = append(records, &core.ChunkRecord{
			SourceKey:  sourceKey,
			Index:      len(records),
			Text:       text,
			TokenCount: c.CountTokens(text),
			Status:     core.ChunkPending,
		})
	}
	return records
}

// section is a run of markdown body text under a heading path.
type section struct {
	headings [3]string // h1, h2, h3; deeper levels are treated as body text
	body     []string
}

// header builds the context header from the heading path, optionally
// appending a part number when a section is split across chunks.
// Example: "Project Title\nSection\nSubsection - part 2"
func (s *section) header(part int) string {
	var parts []string
	for _, h := range s.headings {
		if h != "" {
			parts = append(parts, h)
		}
	}
	header := strings.Join(parts, "\n")
	if part > 0 {
		header += fmt.Sprintf(" - part %d", part)
	}
	return header
}

func (c *Chunker) splitMarkdown(markdown string) []string {
	var result []string
	for _, sec := range parseSections(markdown) {
		body := strings.TrimSpace(strings.Join(sec.body, "\n"))
		if body == "" {
			continue
		}

		content := sec.header(0) + "\n" + body
		if c.CountTokens(content) <= c.maxTokens {
			result = append(result, content)
			continue
		}

		// Section exceeds the budget: re-split the body by sentences and
		// number the parts so ordering survives retrieval.
		for i, part := range c.splitSentences(body) {
			result = append(result, sec.header(i+1)+"\n"+part)
		}
	}
	return result
}

// parseSections walks the markdown line by line, tracking the heading path.
// Opening a heading at level N clears all deeper levels.
func parseSections(markdown string) []*section {
	var (
		sections []*section
		current  = &section{}
	)
	flush := func() {
		if len(current.body) > 0 {
			sections = append(sections, current)
		}
		next := &section{headings: current.headings}
		current = next
	}

	for _, line := range strings.Split(markdown, "\n") {
		level, title := headingLine(line)
		if level == 0 {
			current.body = append(current.body, line)
			continue
		}
		flush()
		current.headings[level-1] = title
		for i := level; i < 3; i++ {
			current.headings[i] = ""
		}
	}
	flush()
	return sections
}

// headingLine returns the heading level (1-3) and title, or 0 for body lines.
func headingLine(line string) (int, string) {
	trimmed := strings.TrimLeft(line, "#")
	level := len(line) - len(trimmed)
	if level < 1 || level > 3 || !strings.HasPrefix(trimmed, " ") {
		return 0, ""
	}
	return level, strings.TrimSpace(trimmed)
}

// splitSentences greedily packs sentences into chunks under the token budget.
// A single sentence over the budget becomes its own chunk; the tokenizer
// budget is a soft bound there rather than a reason to cut mid-sentence.
func (c *Chunker) splitSentences(text string) []string {
	sentences := splitIntoSentences(text)

	var (
		chunks  []string
		current []string
		tokens  int
	)
	for _, sentence := range sentences {
		n := c.CountTokens(sentence)
		if tokens+n > c.maxTokens && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			tokens = 0
		}
		current = append(current, sentence)
		tokens += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// splitIntoSentences splits text at sentence-final punctuation followed by
// whitespace. Paragraph breaks also terminate a sentence.
func splitIntoSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		terminal := r == '.' || r == '!' || r == '?'
		if terminal && i+1 < len(runes) && isSpace(runes[i+1]) {
			s := strings.TrimSpace(string(runes[start : i+1]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		} else if r == '\n' && i+1 < len(runes) && runes[i+1] == '\n' {
			s := strings.TrimSpace(string(runes[start:i]))
			if s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
