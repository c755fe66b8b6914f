package service

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/retriever"

	"github.com/google/uuid"
)

// vectorSearchAdapter exposes the chunk table as the retriever's vector arm.
type vectorSearchAdapter struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewVectorSearchAdapter(uowFactory unitofwork.RepositoryFactory) retriever.VectorSearcher {
	return &vectorSearchAdapter{uowFactory: uowFactory}
}

func (a *vectorSearchAdapter) SearchSimilar(ctx context.Context, projectID uuid.UUID, vector []float32, topK int) ([]retriever.VectorHit, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.ChunkRepository().SearchSimilarWithScore(ctx, projectID, vector, topK)
	if err != nil {
		return nil, err
	}

	hits := make([]retriever.VectorHit, len(scored))
	for i, s := range scored {
		hits[i] = retriever.VectorHit{ChunkID: s.Chunk.Id, Score: s.Similarity}
	}
	return hits, nil
}

func (a *vectorSearchAdapter) CountReady(ctx context.Context, projectID uuid.UUID) (int64, error) {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	return uow.DocumentRepository().Count(ctx,
		specification.ByProject{ProjectID: projectID},
		specification.ByStatus{Status: string(entity.DocumentStatusReady)},
	)
}
