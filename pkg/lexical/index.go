package lexical

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Result is one lexical hit: a chunk id with its relevance score.
type Result struct {
	ChunkID uuid.UUID
	Score   float64
}

// Index is an in-memory, per-project inverted index with IDF-weighted term
// frequency scoring. Inserts are incremental; no global rebuild per add.
// Postgres remains the source of truth; the index is rebuilt from the chunk
// table at startup.
type Index struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*projectIndex
}

type projectIndex struct {
	// term -> chunk id -> occurrences of term in that chunk
	postings map[string]map[uuid.UUID]int
	chunks   map[uuid.UUID]chunkMeta
}

type chunkMeta struct {
	documentID    uuid.UUID
	sequenceIndex int
	tokenCount    int
}

func NewIndex() *Index {
	return &Index{
		projects: make(map[uuid.UUID]*projectIndex),
	}
}

// Add indexes one chunk's text under its project. Re-adding the same chunk id
// replaces its previous postings.
func (ix *Index) Add(projectID, documentID, chunkID uuid.UUID, sequenceIndex int, text string) {
	tokens := Tokenize(text)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	proj, ok := ix.projects[projectID]
	if !ok {
		proj = &projectIndex{
			postings: make(map[string]map[uuid.UUID]int),
			chunks:   make(map[uuid.UUID]chunkMeta),
		}
		ix.projects[projectID] = proj
	}

	if _, exists := proj.chunks[chunkID]; exists {
		proj.removeChunk(chunkID)
	}

	counted := 0
	for _, tok := range tokens {
		posting, ok := proj.postings[tok]
		if !ok {
			posting = make(map[uuid.UUID]int)
			proj.postings[tok] = posting
		}
		posting[chunkID]++
		counted++
	}

	proj.chunks[chunkID] = chunkMeta{
		documentID:    documentID,
		sequenceIndex: sequenceIndex,
		tokenCount:    counted,
	}
}

// RemoveDocument drops every chunk of a document from the project's index.
func (ix *Index) RemoveDocument(projectID, documentID uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	proj, ok := ix.projects[projectID]
	if !ok {
		return
	}
	for chunkID, meta := range proj.chunks {
		if meta.documentID == documentID {
			proj.removeChunk(chunkID)
		}
	}
	if len(proj.chunks) == 0 {
		delete(ix.projects, projectID)
	}
}

func (p *projectIndex) removeChunk(chunkID uuid.UUID) {
	for term, posting := range p.postings {
		delete(posting, chunkID)
		if len(posting) == 0 {
			delete(p.postings, term)
		}
	}
	delete(p.chunks, chunkID)
}

// Search scores the project's chunks against the query terms and returns the
// top-K results. Score is normalized term frequency weighted by smoothed
// inverse document frequency, so rare terms dominate. Ties break by chunk
// sequence index ascending for determinism.
func (ix *Index) Search(projectID uuid.UUID, query string, topK int) []Result {
	if topK <= 0 {
		return nil
	}
	terms := Tokenize(query)
	if len(terms) == 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	proj, ok := ix.projects[projectID]
	if !ok || len(proj.chunks) == 0 {
		return nil
	}

	n := float64(len(proj.chunks))
	scores := make(map[uuid.UUID]float64)
	for _, term := range terms {
		posting, ok := proj.postings[term]
		if !ok {
			continue
		}
		idf := math.Log((1+n)/(1+float64(len(posting)))) + 1.0
		for chunkID, count := range posting {
			meta := proj.chunks[chunkID]
			tf := float64(count)
			if meta.tokenCount > 0 {
				tf /= float64(meta.tokenCount)
			}
			scores[chunkID] += tf * idf
		}
	}

	results := make([]Result, 0, len(scores))
	for chunkID, score := range scores {
		results = append(results, Result{ChunkID: chunkID, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return proj.chunks[results[i].ChunkID].sequenceIndex < proj.chunks[results[j].ChunkID].sequenceIndex
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// ChunkCount reports how many chunks a project currently has indexed.
func (ix *Index) ChunkCount(projectID uuid.UUID) int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	proj, ok := ix.projects[projectID]
	if !ok {
		return 0
	}
	return len(proj.chunks)
}
