package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"doc-chat-be/pkg/apperrors"
	"doc-chat-be/pkg/chunker"
	"doc-chat-be/pkg/decoder"
	"doc-chat-be/pkg/lexical"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	dims    int
	badDims int
	err     error
}

func (f *fakeEmbedder) EmbedMany(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	dims := f.dims
	if f.badDims > 0 {
		dims = f.badDims
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, dims)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dims }

type recordingWriter struct {
	upserted  []StoredChunk
	upsertErr error
	deleted   []uuid.UUID
}

func (w *recordingWriter) UpsertBulk(ctx context.Context, chunks []StoredChunk) error {
	if w.upsertErr != nil {
		return w.upsertErr
	}
	w.upserted = append(w.upserted, chunks...)
	return nil
}

func (w *recordingWriter) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	w.deleted = append(w.deleted, documentID)
	return nil
}

func newTestPipeline(emb Embedder, writer ChunkWriter, index *lexical.Index) *Pipeline {
	return NewPipeline(decoder.New(), chunker.New(50, 10), emb, writer, index)
}

func testDoc() Document {
	return Document{ID: uuid.New(), ProjectID: uuid.New(), ContentType: "text/plain"}
}

func TestProcessStoresChunksInBothIndexes(t *testing.T) {
	writer := &recordingWriter{}
	index := lexical.NewIndex()
	doc := testDoc()

	text := "alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima mike november oscar papa"
	count, err := newTestPipeline(&fakeEmbedder{dims: 4}, writer, index).Process(context.Background(), doc, []byte(text))
	require.NoError(t, err)

	assert.Greater(t, count, 1)
	assert.Len(t, writer.upserted, count)
	assert.Equal(t, count, index.ChunkCount(doc.ProjectID))
	for i, chunk := range writer.upserted {
		assert.Equal(t, i, chunk.SequenceIndex)
		assert.Equal(t, doc.ID, chunk.DocumentID)
		assert.Equal(t, doc.ProjectID, chunk.ProjectID)
		assert.Len(t, chunk.Embedding, 4)
	}
}

func TestProcessEmptyTextSucceedsWithZeroChunks(t *testing.T) {
	writer := &recordingWriter{}

	count, err := newTestPipeline(&fakeEmbedder{dims: 4}, writer, lexical.NewIndex()).Process(context.Background(), testDoc(), []byte("   \n\t "))
	require.NoError(t, err)

	assert.Zero(t, count)
	assert.Empty(t, writer.upserted)
}

func TestProcessUnsupportedFormatFails(t *testing.T) {
	doc := testDoc()
	doc.ContentType = "application/pdf"

	_, err := newTestPipeline(&fakeEmbedder{dims: 4}, &recordingWriter{}, lexical.NewIndex()).Process(context.Background(), doc, []byte("%PDF"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedFormat))
}

func TestProcessEmbeddingFailureWritesNothing(t *testing.T) {
	writer := &recordingWriter{}
	index := lexical.NewIndex()
	doc := testDoc()

	emb := &fakeEmbedder{dims: 4, err: fmt.Errorf("%w: backend down", apperrors.ErrEmbedding)}
	_, err := newTestPipeline(emb, writer, index).Process(context.Background(), doc, []byte("some document text"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEmbedding))
	assert.Empty(t, writer.upserted)
	assert.Zero(t, index.ChunkCount(doc.ProjectID))
}

func TestProcessDimensionMismatchIsConfigurationError(t *testing.T) {
	writer := &recordingWriter{}

	_, err := newTestPipeline(&fakeEmbedder{dims: 4, badDims: 8}, writer, lexical.NewIndex()).Process(context.Background(), testDoc(), []byte("some document text"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
	assert.Empty(t, writer.upserted)
}

func TestProcessUpsertFailureCleansUp(t *testing.T) {
	writer := &recordingWriter{upsertErr: errors.New("connection lost")}
	index := lexical.NewIndex()
	doc := testDoc()

	_, err := newTestPipeline(&fakeEmbedder{dims: 4}, writer, index).Process(context.Background(), doc, []byte("some document text"))

	require.Error(t, err)
	assert.Contains(t, writer.deleted, doc.ID)
	assert.Zero(t, index.ChunkCount(doc.ProjectID))
}
