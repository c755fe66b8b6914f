package contract

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ScoredChunk wraps a chunk with its cosine similarity score
type ScoredChunk struct {
	Chunk      *entity.Chunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type ChunkRepository interface {
	UpsertBulk(ctx context.Context, chunks []*entity.Chunk) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Chunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// SearchSimilarWithScore runs a cosine nearest-neighbor query scoped to
	// one project, considering only chunks of ready documents.
	SearchSimilarWithScore(ctx context.Context, projectId uuid.UUID, embedding []float32, limit int) ([]*ScoredChunk, error)
}
