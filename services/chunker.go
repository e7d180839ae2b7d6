package services

import (
	"fmt"
)

// sentence-terminal characters used for boundary-aware cuts
func isSentenceTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// Chunker splits document text into overlapping, boundary-aware segments.
// Sizes are in characters (runes), matching the embedding provider's notion
// of input length for plain text.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker validates the configuration up front; an overlap that is not
// strictly smaller than the chunk size can stall the sliding window.
func NewChunker(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got: %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap cannot be negative, got: %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be less than chunk size (%d)", overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// Chunk splits text into ordered segments of at most chunkSize characters.
// Before each cut it scans backward through at most overlap characters for
// the last sentence terminal and cuts just after it when found; consecutive
// chunks overlap by up to overlap characters. Pure function of its input.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.chunkSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			// Final chunk: take the remainder as-is
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// Scan backward through the overlap window for a sentence boundary
		cut := end
		for i := end - 1; i >= end-c.overlap && i > start; i-- {
			if isSentenceTerminal(runes[i]) {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[start:cut]))

		// Preserve overlap; fall back to a full-size advance if the window
		// would not move forward
		next := cut - c.overlap
		if next <= start {
			next = start + c.chunkSize
		}
		start = next
	}

	return chunks
}
