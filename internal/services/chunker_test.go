package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextRespectsSizeAndOverlap(t *testing.T) {
	chunker := NewTextChunker()

	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteString("This paragraph describes one aspect of ATS keyword optimization in enough detail to matter.\n\n")
	}

	chunks := chunker.ChunkText(b.String(), 200, 40)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 260, "chunk %d exceeds budget plus overlap slack", i)
	}

	// Each chunk after the first carries the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		tail := chunks[i-1][len(chunks[i-1])-20:]
		assert.Contains(t, chunks[i], strings.TrimSpace(tail), "chunk %d lost its overlap", i)
	}
}

func TestChunkTextShortInputSingleChunk(t *testing.T) {
	chunker := NewTextChunker()

	chunks := chunker.ChunkText("One short guideline paragraph.", 1000, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "One short guideline paragraph.", chunks[0])
}

func TestChunkTextEmptyInput(t *testing.T) {
	chunker := NewTextChunker()
	assert.Empty(t, chunker.ChunkText("   \n\n  ", 1000, 200))
}
