package retriever

import (
	"context"
	"errors"
	"testing"

	"doc-chat-be/pkg/apperrors"
	"doc-chat-be/pkg/lexical"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVectorSearcher struct {
	readyCount int64
	hits       []VectorHit
	err        error
}

func (s *stubVectorSearcher) SearchSimilar(ctx context.Context, projectID uuid.UUID, vector []float32, topK int) ([]VectorHit, error) {
	return s.hits, s.err
}

func (s *stubVectorSearcher) CountReady(ctx context.Context, projectID uuid.UUID) (int64, error) {
	return s.readyCount, nil
}

type stubLexicalSearcher struct {
	hits []lexical.Result
}

func (s *stubLexicalSearcher) Search(projectID uuid.UUID, query string, topK int) []lexical.Result {
	return s.hits
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{0.1, 0.2, 0.3}, nil
}

func newIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestRetrieveFailsWhenNoReadyDocuments(t *testing.T) {
	r := NewHybridRetriever(stubEmbedder{}, &stubVectorSearcher{readyCount: 0}, &stubLexicalSearcher{}, DefaultConfig())

	_, err := r.Retrieve(context.Background(), uuid.New(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrRetrieval))
}

func TestRetrievePureVectorOrderingWhenAlphaOne(t *testing.T) {
	ids := newIDs(3)
	cfg := DefaultConfig()
	cfg.Alpha = 1.0

	vec := &stubVectorSearcher{
		readyCount: 1,
		hits: []VectorHit{
			{ChunkID: ids[0], Score: 0.9},
			{ChunkID: ids[1], Score: 0.5},
			{ChunkID: ids[2], Score: 0.1},
		},
	}
	// Lexical disagrees completely; with alpha=1 it must not matter.
	lex := &stubLexicalSearcher{hits: []lexical.Result{
		{ChunkID: ids[2], Score: 10},
		{ChunkID: ids[1], Score: 5},
	}}

	got, err := NewHybridRetriever(stubEmbedder{}, vec, lex, cfg).Retrieve(context.Background(), uuid.New(), "q")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[0], got[0].ChunkID)
	assert.Equal(t, ids[1], got[1].ChunkID)
	assert.Equal(t, ids[2], got[2].ChunkID)
}

func TestRetrievePureLexicalOrderingWhenAlphaZero(t *testing.T) {
	ids := newIDs(3)
	cfg := DefaultConfig()
	cfg.Alpha = 0.0

	vec := &stubVectorSearcher{
		readyCount: 1,
		hits: []VectorHit{
			{ChunkID: ids[0], Score: 0.99},
		},
	}
	lex := &stubLexicalSearcher{hits: []lexical.Result{
		{ChunkID: ids[2], Score: 3.0},
		{ChunkID: ids[1], Score: 2.0},
		{ChunkID: ids[0], Score: 1.0},
	}}

	got, err := NewHybridRetriever(stubEmbedder{}, vec, lex, cfg).Retrieve(context.Background(), uuid.New(), "q")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[2], got[0].ChunkID)
	assert.Equal(t, ids[1], got[1].ChunkID)
	assert.Equal(t, ids[0], got[2].ChunkID)
}

func TestRetrieveChunkMissingFromOneArmScoresZeroForIt(t *testing.T) {
	ids := newIDs(2)
	cfg := DefaultConfig()
	cfg.Alpha = 0.5

	// ids[0] appears in both arms at the top; ids[1] only lexically.
	vec := &stubVectorSearcher{
		readyCount: 1,
		hits: []VectorHit{
			{ChunkID: ids[0], Score: 0.8},
		},
	}
	lex := &stubLexicalSearcher{hits: []lexical.Result{
		{ChunkID: ids[0], Score: 4.0},
		{ChunkID: ids[1], Score: 4.0},
	}}

	got, err := NewHybridRetriever(stubEmbedder{}, vec, lex, cfg).Retrieve(context.Background(), uuid.New(), "q")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[0], got[0].ChunkID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9, "both arms at their max: 0.5 + 0.5")
	assert.Equal(t, ids[1], got[1].ChunkID)
	assert.InDelta(t, 0.5, got[1].Score, 1e-9, "lexical arm only")
}

func TestRetrieveTruncatesToFinalK(t *testing.T) {
	ids := newIDs(10)
	cfg := DefaultConfig()
	cfg.FinalK = 3

	hits := make([]VectorHit, len(ids))
	for i, id := range ids {
		hits[i] = VectorHit{ChunkID: id, Score: float64(len(ids) - i)}
	}
	vec := &stubVectorSearcher{readyCount: 2, hits: hits}

	got, err := NewHybridRetriever(stubEmbedder{}, vec, &stubLexicalSearcher{}, cfg).Retrieve(context.Background(), uuid.New(), "q")
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, ids[0], got[0].ChunkID)
}

func TestRetrievePropagatesVectorSearchError(t *testing.T) {
	vec := &stubVectorSearcher{readyCount: 1, err: errors.New("connection reset")}

	_, err := NewHybridRetriever(stubEmbedder{}, vec, &stubLexicalSearcher{}, DefaultConfig()).Retrieve(context.Background(), uuid.New(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "vector search")
}
