package retriever

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"doc-chat-be/pkg/apperrors"
	"doc-chat-be/pkg/embedding"
	"doc-chat-be/pkg/lexical"

	"github.com/google/uuid"
)

// VectorHit is one nearest-neighbor result from the vector store, scored by
// cosine similarity.
type VectorHit struct {
	ChunkID uuid.UUID
	Score   float64
}

// Candidate is one fused retrieval result.
type Candidate struct {
	ChunkID uuid.UUID
	Score   float64
}

// VectorSearcher queries the vector store for a project's nearest chunks.
// Queries are project-scoped and only consider chunks of ready documents.
type VectorSearcher interface {
	SearchSimilar(ctx context.Context, projectID uuid.UUID, vector []float32, topK int) ([]VectorHit, error)
	CountReady(ctx context.Context, projectID uuid.UUID) (int64, error)
}

// LexicalSearcher is satisfied by *lexical.Index.
type LexicalSearcher interface {
	Search(projectID uuid.UUID, query string, topK int) []lexical.Result
}

// QueryEmbedder embeds the question text for the vector arm.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string, taskType string) ([]float32, error)
}

// Config tunes the hybrid fusion. Alpha weighs the vector arm; 1-Alpha weighs
// the lexical arm.
type Config struct {
	Alpha       float64
	VectorTopK  int
	LexicalTopK int
	FinalK      int
}

func DefaultConfig() Config {
	return Config{
		Alpha:       0.5,
		VectorTopK:  12,
		LexicalTopK: 12,
		FinalK:      6,
	}
}

// HybridRetriever runs the vector and lexical arms concurrently, min-max
// normalizes each result list, and fuses them by weighted sum. A chunk absent
// from one arm contributes zero for that arm.
type HybridRetriever struct {
	embedder QueryEmbedder
	vector   VectorSearcher
	lexical  LexicalSearcher
	cfg      Config
}

func NewHybridRetriever(embedder QueryEmbedder, vector VectorSearcher, lex LexicalSearcher, cfg Config) *HybridRetriever {
	return &HybridRetriever{
		embedder: embedder,
		vector:   vector,
		lexical:  lex,
		cfg:      cfg,
	}
}

// Retrieve returns the top fused candidates for a question. A project with no
// ready documents cannot answer anything, so that is ErrRetrieval rather than
// an empty result.
func (r *HybridRetriever) Retrieve(ctx context.Context, projectID uuid.UUID, query string) ([]Candidate, error) {
	ready, err := r.vector.CountReady(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("count ready documents: %w", err)
	}
	if ready == 0 {
		return nil, fmt.Errorf("%w: project %s has no ready documents", apperrors.ErrRetrieval, projectID)
	}

	queryVector, err := r.embedder.EmbedOne(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var (
		wg          sync.WaitGroup
		vectorHits  []VectorHit
		vectorErr   error
		lexicalHits []lexical.Result
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = r.vector.SearchSimilar(ctx, projectID, queryVector, r.cfg.VectorTopK)
	}()
	go func() {
		defer wg.Done()
		lexicalHits = r.lexical.Search(projectID, query, r.cfg.LexicalTopK)
	}()
	wg.Wait()

	if vectorErr != nil {
		return nil, fmt.Errorf("vector search: %w", vectorErr)
	}

	vectorScores := make(map[uuid.UUID]float64, len(vectorHits))
	for _, hit := range vectorHits {
		vectorScores[hit.ChunkID] = hit.Score
	}
	lexicalScores := make(map[uuid.UUID]float64, len(lexicalHits))
	for _, hit := range lexicalHits {
		lexicalScores[hit.ChunkID] = hit.Score
	}

	normalize(vectorScores)
	normalize(lexicalScores)

	fused := make(map[uuid.UUID]float64, len(vectorScores)+len(lexicalScores))
	for chunkID, score := range vectorScores {
		fused[chunkID] += r.cfg.Alpha * score
	}
	for chunkID, score := range lexicalScores {
		fused[chunkID] += (1 - r.cfg.Alpha) * score
	}

	candidates := make([]Candidate, 0, len(fused))
	for chunkID, score := range fused {
		candidates = append(candidates, Candidate{ChunkID: chunkID, Score: score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ChunkID.String() < candidates[j].ChunkID.String()
	})

	if len(candidates) > r.cfg.FinalK {
		candidates = candidates[:r.cfg.FinalK]
	}
	return candidates, nil
}

// normalize rescales scores into [0,1] in place. A constant list maps to 1.0
// so a single hit still carries its full arm weight.
func normalize(scores map[uuid.UUID]float64) {
	if len(scores) == 0 {
		return
	}
	var min, max float64
	seeded := false
	for _, s := range scores {
		if !seeded {
			min, max = s, s
			seeded = true
			continue
		}
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	for id, s := range scores {
		if max > min {
			scores[id] = (s - min) / (max - min)
		} else {
			scores[id] = 1.0
		}
	}
}
