package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunker(t *testing.T) {
	t.Run("ShouldRejectOverlapNotSmallerThanSize", func(t *testing.T) {
		_, err := NewChunker(200, 200)
		require.Error(t, err)
		_, err = NewChunker(200, 300)
		require.Error(t, err)
	})

	t.Run("ShouldRejectNonPositiveSizeAndNegativeOverlap", func(t *testing.T) {
		_, err := NewChunker(0, 0)
		require.Error(t, err)
		_, err = NewChunker(100, -1)
		require.Error(t, err)
	})
}

func TestChunk(t *testing.T) {
	t.Run("ShouldReturnWholeTextWhenShorterThanChunkSize", func(t *testing.T) {
		c, err := NewChunker(1000, 200)
		require.NoError(t, err)
		chunks := c.Chunk("short text")
		assert.Equal(t, []string{"short text"}, chunks)
	})

	t.Run("ShouldSplitExactlyAtMaxLengthWithoutPunctuation", func(t *testing.T) {
		c, err := NewChunker(1000, 200)
		require.NoError(t, err)
		text := strings.Repeat("a", 2500)
		chunks := c.Chunk(text)
		require.Len(t, chunks, 3)
		assert.Len(t, chunks[0], 1000)
		assert.Len(t, chunks[1], 1000)
		assert.Len(t, chunks[2], 900)
		// 200-character overlap at each join
		assert.Equal(t, chunks[0][800:], chunks[1][:200])
		assert.Equal(t, chunks[1][800:], chunks[2][:200])
	})

	t.Run("ShouldCoverOriginalTextExactly", func(t *testing.T) {
		c, err := NewChunker(100, 20)
		require.NoError(t, err)
		text := strings.Repeat("abcdefghij", 57)
		chunks := c.Chunk(text)
		// Dropping each chunk's leading overlap reconstructs the input
		rebuilt := chunks[0]
		for _, chunk := range chunks[1:] {
			assert.Equal(t, rebuilt[len(rebuilt)-20:], chunk[:20])
			rebuilt += chunk[20:]
		}
		assert.Equal(t, text, rebuilt)
	})

	t.Run("ShouldCutAfterSentenceTerminalInsideOverlapWindow", func(t *testing.T) {
		c, err := NewChunker(50, 10)
		require.NoError(t, err)
		// Period sits 5 chars before the window end, inside the 10-char scan
		text := strings.Repeat("a", 44) + "." + strings.Repeat("b", 30)
		chunks := c.Chunk(text)
		require.GreaterOrEqual(t, len(chunks), 2)
		assert.Equal(t, strings.Repeat("a", 44)+".", chunks[0])
		// Next window starts at the cut minus the overlap
		assert.Equal(t, strings.Repeat("a", 9)+".", chunks[1][:10])
	})

	t.Run("ShouldBeDeterministic", func(t *testing.T) {
		c, err := NewChunker(1000, 200)
		require.NoError(t, err)
		text := strings.Repeat("lorem ipsum dolor sit amet. ", 200)
		assert.Equal(t, c.Chunk(text), c.Chunk(text))
	})

	t.Run("ShouldAlwaysAdvancePastDenseTerminals", func(t *testing.T) {
		c, err := NewChunker(10, 8)
		require.NoError(t, err)
		text := strings.Repeat(".", 100)
		chunks := c.Chunk(text)
		require.NotEmpty(t, chunks)
		total := 0
		for _, chunk := range chunks {
			total += len(chunk)
		}
		assert.GreaterOrEqual(t, total, 100)
	})
}
