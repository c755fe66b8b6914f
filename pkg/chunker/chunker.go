package chunker

import (
	"fmt"

	"doc-chat-be/pkg/apperrors"
)

// Chunk is one passage of a split document. Start and End are rune offsets
// into the decoded text; ranges are disjoint and strictly increasing, and
// together they cover the document exactly once. Text may reach backward by
// the configured overlap for context, the offsets never do.
type Chunk struct {
	Index int
	Start int
	End   int
	Text  string
}

// Chunker splits decoded text into fixed-size passages with stable offsets.
type Chunker struct {
	ChunkSize int
	Overlap   int
}

func New(chunkSize, overlap int) *Chunker {
	return &Chunker{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split cuts text into chunks of at most ChunkSize runes.
// Empty text yields zero chunks, which is not an error: the document is
// simply ready with nothing to index.
func (c *Chunker) Split(text string) ([]Chunk, error) {
	if c.ChunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", apperrors.ErrChunking, c.ChunkSize)
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		return nil, fmt.Errorf("%w: overlap %d must satisfy 0 <= overlap < chunk size %d", apperrors.ErrChunking, c.Overlap, c.ChunkSize)
	}

	runes := []rune(text)
	totalLen := len(runes)
	if totalLen == 0 {
		return nil, nil
	}

	var chunks []Chunk
	for start := 0; start < totalLen; start += c.ChunkSize {
		end := start + c.ChunkSize
		if end > totalLen {
			end = totalLen
		}

		// The emitted text is extended backward by the overlap so the chunk
		// carries boundary context, while the offset window stays disjoint.
		textStart := start - c.Overlap
		if textStart < 0 {
			textStart = 0
		}

		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Text:  string(runes[textStart:end]),
		})
	}

	return chunks, nil
}
