package chunker

import (
	"errors"
	"strings"
	"testing"

	"doc-chat-be/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitOffsetScenario(t *testing.T) {
	// 2500 chars, size 1000, overlap 200 -> [0,1000) [1000,2000) [2000,2500)
	text := strings.Repeat("a", 1000) + strings.Repeat("b", 1000) + strings.Repeat("c", 500)
	chunks, err := New(1000, 200).Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 1000, chunks[0].End)
	assert.Equal(t, 1000, chunks[1].Start)
	assert.Equal(t, 2000, chunks[1].End)
	assert.Equal(t, 2000, chunks[2].Start)
	assert.Equal(t, 2500, chunks[2].End)

	// Overlap padding: chunk 1 text reaches 200 runes back into chunk 0.
	assert.Len(t, chunks[1].Text, 1200)
	assert.Equal(t, strings.Repeat("a", 200), chunks[1].Text[:200])
	// First chunk has nothing to reach back into.
	assert.Len(t, chunks[0].Text, 1000)
}

func TestSplitOffsetsReconstructText(t *testing.T) {
	texts := []string{
		"short",
		strings.Repeat("x", 999),
		strings.Repeat("y", 1000),
		strings.Repeat("z", 1001),
		"héllo wörld " + strings.Repeat("é", 2048),
	}

	for _, text := range texts {
		chunks, err := New(1000, 200).Split(text)
		require.NoError(t, err)

		runes := []rune(text)
		var rebuilt strings.Builder
		prevEnd := 0
		for i, c := range chunks {
			assert.Equal(t, i, c.Index, "sequence indices contiguous from 0")
			assert.Equal(t, prevEnd, c.Start, "offsets non-overlapping and contiguous")
			assert.Greater(t, c.End, c.Start)
			rebuilt.WriteString(string(runes[c.Start:c.End]))
			prevEnd = c.End
		}
		assert.Equal(t, text, rebuilt.String())
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks, err := New(1000, 200).Split("tiny document")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "tiny document", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, len([]rune("tiny document")), chunks[0].End)
}

func TestSplitEmptyTextYieldsZeroChunks(t *testing.T) {
	chunks, err := New(1000, 200).Split("")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplitRejectsOverlapGreaterOrEqualChunkSize(t *testing.T) {
	_, err := New(100, 100).Split("some text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrChunking))

	_, err = New(100, 150).Split("some text")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrChunking))
}
