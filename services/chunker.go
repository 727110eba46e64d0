package services

import (
	"strings"
)

// minChunkLength filters out stray fragments that are too short to be
// useful retrieval context. Chunks of exactly this length are kept.
const minChunkLength = 50

// avgWordLength approximates characters-per-word when converting the
// overlap budget from characters to words.
const avgWordLength = 5

// Chunker splits extracted text into overlapping, sentence-aligned
// chunks. The same input and parameters always produce the same
// sequence, so re-ingesting a document is idempotent.
type Chunker struct {
	MaxChunkSize int
	Overlap      int
}

func NewChunker(maxChunkSize, overlap int) *Chunker {
	return &Chunker{
		MaxChunkSize: maxChunkSize,
		Overlap:      overlap,
	}
}

// ChunkText splits text into chunks of at most MaxChunkSize characters,
// closing a chunk only at sentence boundaries. Each new chunk is seeded
// with the trailing words of the previous one so neighbouring chunks
// share context. A single sentence longer than MaxChunkSize is emitted
// whole rather than cut mid-sentence.
func (c *Chunker) ChunkText(text string) []string {
	sentences := splitSentences(text)

	var chunks []string
	var current string

	for _, sentence := range sentences {
		if len(current)+len(sentence) > c.MaxChunkSize && len(current) > 0 {
			chunks = append(chunks, strings.TrimSpace(current))
			if tail := c.overlapTail(current); tail != "" {
				current = tail + " " + sentence
			} else {
				current = sentence
			}
			continue
		}

		if current == "" {
			current = sentence
		} else {
			current += ". " + sentence
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	filtered := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk) >= minChunkLength {
			filtered = append(filtered, chunk)
		}
	}
	return filtered
}

// overlapTail returns the last Overlap/avgWordLength words of a closed
// chunk. The word count is a rough characters-to-words conversion, so
// the actual overlap in characters is approximate.
func (c *Chunker) overlapTail(chunk string) string {
	words := strings.Split(chunk, " ")
	n := c.Overlap / avgWordLength
	if n <= 0 {
		return ""
	}
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[len(words)-n:], " ")
}

// splitSentences breaks text on runs of terminal punctuation. Text with
// no delimiter at all is treated as a single sentence.
func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			sentences = append(sentences, part)
		}
	}
	return sentences
}
