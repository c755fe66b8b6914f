package mapper

import (
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(c *model.Chunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	return &entity.Chunk{
		Id:            c.Id,
		DocumentId:    c.DocumentId,
		ProjectId:     c.ProjectId,
		SequenceIndex: c.SequenceIndex,
		StartOffset:   c.StartOffset,
		EndOffset:     c.EndOffset,
		Content:       c.Content,
		Embedding:     c.Embedding.Slice(),
		CreatedAt:     c.CreatedAt,
	}
}

func (m *ChunkMapper) ToModel(c *entity.Chunk) *model.Chunk {
	if c == nil {
		return nil
	}

	return &model.Chunk{
		Id:            c.Id,
		DocumentId:    c.DocumentId,
		ProjectId:     c.ProjectId,
		SequenceIndex: c.SequenceIndex,
		StartOffset:   c.StartOffset,
		EndOffset:     c.EndOffset,
		Content:       c.Content,
		Embedding:     pgvector.NewVector(c.Embedding),
		CreatedAt:     c.CreatedAt,
	}
}

func (m *ChunkMapper) ToEntities(chunks []*model.Chunk) []*entity.Chunk {
	entities := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}

func (m *ChunkMapper) ToModels(chunks []*entity.Chunk) []*model.Chunk {
	models := make([]*model.Chunk, len(chunks))
	for i, c := range chunks {
		models[i] = m.ToModel(c)
	}
	return models
}
