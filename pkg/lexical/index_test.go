package lexical

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchRewardsRareTerms(t *testing.T) {
	ix := NewIndex()
	projectID := uuid.New()
	docID := uuid.New()

	common := uuid.New()
	rare := uuid.New()
	ix.Add(projectID, docID, common, 0, "the service handles requests and more requests")
	ix.Add(projectID, docID, rare, 1, "the service uses zookeeper quorum election")
	ix.Add(projectID, docID, uuid.New(), 2, "requests go through the service queue")

	results := ix.Search(projectID, "zookeeper election", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, rare, results[0].ChunkID, "chunk holding the rare terms ranks first")

	results = ix.Search(projectID, "requests", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, common, results[0].ChunkID)
}

func TestSearchTieBreaksBySequenceIndex(t *testing.T) {
	ix := NewIndex()
	projectID := uuid.New()
	docID := uuid.New()

	later := uuid.New()
	earlier := uuid.New()
	// Identical text => identical scores; earlier sequence index must win.
	ix.Add(projectID, docID, later, 5, "identical passage text")
	ix.Add(projectID, docID, earlier, 2, "identical passage text")

	results := ix.Search(projectID, "identical passage", 2)
	require.Len(t, results, 2)
	assert.Equal(t, earlier, results[0].ChunkID)
	assert.Equal(t, later, results[1].ChunkID)
	assert.Equal(t, results[0].Score, results[1].Score)
}

func TestSearchScopedToProject(t *testing.T) {
	ix := NewIndex()
	projectA := uuid.New()
	projectB := uuid.New()

	chunkA := uuid.New()
	chunkB := uuid.New()
	// Same text in both projects; results must never cross over.
	ix.Add(projectA, uuid.New(), chunkA, 0, "shared secret phrase")
	ix.Add(projectB, uuid.New(), chunkB, 0, "shared secret phrase")

	results := ix.Search(projectA, "secret phrase", 10)
	require.Len(t, results, 1)
	assert.Equal(t, chunkA, results[0].ChunkID)
}

func TestRemoveDocumentDropsItsChunks(t *testing.T) {
	ix := NewIndex()
	projectID := uuid.New()
	docKeep := uuid.New()
	docDrop := uuid.New()

	kept := uuid.New()
	ix.Add(projectID, docKeep, kept, 0, "kept passage about databases")
	ix.Add(projectID, docDrop, uuid.New(), 0, "dropped passage about databases")
	ix.Add(projectID, docDrop, uuid.New(), 1, "another dropped passage")

	ix.RemoveDocument(projectID, docDrop)

	assert.Equal(t, 1, ix.ChunkCount(projectID))
	results := ix.Search(projectID, "databases", 10)
	require.Len(t, results, 1)
	assert.Equal(t, kept, results[0].ChunkID)
}

func TestSearchTopKAndUnknownProject(t *testing.T) {
	ix := NewIndex()
	projectID := uuid.New()
	docID := uuid.New()
	for i := 0; i < 10; i++ {
		ix.Add(projectID, docID, uuid.New(), i, "repeated filler words")
	}

	assert.Len(t, ix.Search(projectID, "filler", 3), 3)
	assert.Empty(t, ix.Search(uuid.New(), "filler", 3))
	assert.Empty(t, ix.Search(projectID, "", 3))
}

func TestReAddChunkReplacesPostings(t *testing.T) {
	ix := NewIndex()
	projectID := uuid.New()
	docID := uuid.New()
	chunkID := uuid.New()

	ix.Add(projectID, docID, chunkID, 0, "alpha beta")
	ix.Add(projectID, docID, chunkID, 0, "gamma delta")

	assert.Empty(t, ix.Search(projectID, "alpha", 5))
	require.Len(t, ix.Search(projectID, "gamma", 5), 1)
	assert.Equal(t, 1, ix.ChunkCount(projectID))
}
