package entity

import (
	"time"

	"github.com/google/uuid"
)

type Chunk struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentId    uuid.UUID `gorm:"type:uuid;index"`
	ProjectId     uuid.UUID `gorm:"type:uuid;index"`
	SequenceIndex int
	StartOffset   int
	EndOffset     int
	Content       string
	Embedding     []float32
	CreatedAt     time.Time
}
