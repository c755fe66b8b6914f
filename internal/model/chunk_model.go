package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

type Chunk struct {
	Id            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentId    uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_chunks_document_sequence"`
	ProjectId     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SequenceIndex int             `gorm:"not null;uniqueIndex:idx_chunks_document_sequence"`
	StartOffset   int             `gorm:"not null"`
	EndOffset     int             `gorm:"not null"`
	Content       string          `gorm:"type:text"`
	Embedding     pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text and text-embedding-004 are both 768-dim
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
}

func (Chunk) TableName() string {
	return "chunks"
}
