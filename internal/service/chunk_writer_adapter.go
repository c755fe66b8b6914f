package service

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/rag/ingest"

	"github.com/google/uuid"
)

// chunkWriterAdapter persists pipeline output through the chunk repository.
type chunkWriterAdapter struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewChunkWriterAdapter(uowFactory unitofwork.RepositoryFactory) ingest.ChunkWriter {
	return &chunkWriterAdapter{uowFactory: uowFactory}
}

func (a *chunkWriterAdapter) UpsertBulk(ctx context.Context, chunks []ingest.StoredChunk) error {
	entities := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		entities[i] = &entity.Chunk{
			Id:            c.ID,
			DocumentId:    c.DocumentID,
			ProjectId:     c.ProjectID,
			SequenceIndex: c.SequenceIndex,
			StartOffset:   c.StartOffset,
			EndOffset:     c.EndOffset,
			Content:       c.Text,
			Embedding:     c.Embedding,
		}
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	return uow.ChunkRepository().UpsertBulk(ctx, entities)
}

func (a *chunkWriterAdapter) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	uow := a.uowFactory.NewUnitOfWork(ctx)
	return uow.ChunkRepository().DeleteByDocumentId(ctx, documentID)
}
