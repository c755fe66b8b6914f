package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"doc-chat-be/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaTestServer(t *testing.T, failOn string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Prompt == failOn {
			http.Error(w, "model blew up", http.StatusInternalServerError)
			return
		}

		// Deterministic per-prompt vector so order is observable.
		vec := []float64{float64(len(req.Prompt)), 1, 0}
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: vec})
	}))
}

func TestOllamaEmbedManyPreservesOrder(t *testing.T) {
	srv := newOllamaTestServer(t, "")
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text", 3)
	vectors, err := p.EmbedMany(context.Background(), []string{"a", "bb", "cccc"}, TaskRetrievalDocument)
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	// First component encodes input length, so order must survive.
	assert.Greater(t, vectors[1][0], vectors[0][0])
	assert.Greater(t, vectors[2][0], vectors[1][0])
}

func TestOllamaEmbedManyFailsWholeBatch(t *testing.T) {
	srv := newOllamaTestServer(t, "poison")
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text", 3)
	vectors, err := p.EmbedMany(context.Background(), []string{"ok", "poison", "also ok"}, TaskRetrievalDocument)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrEmbedding))
	assert.Nil(t, vectors, "no partial results on batch failure")
}

func TestOllamaEmbedOneNormalizes(t *testing.T) {
	srv := newOllamaTestServer(t, "")
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text", 3)
	vec, err := p.EmbedOne(context.Background(), "hello", TaskRetrievalQuery)
	require.NoError(t, err)

	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(magnitude), 1e-5)
}

func TestNormalizeVectorZeroIsUntouched(t *testing.T) {
	zero := []float32{0, 0, 0}
	assert.Equal(t, zero, NormalizeVector(zero))
}
