package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatCitation struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	MessageId     uuid.UUID `gorm:"type:uuid;index"`
	ChunkId       uuid.UUID `gorm:"type:uuid"`
	DocumentId    uuid.UUID `gorm:"type:uuid"`
	Marker        string
	SequenceIndex int
	CreatedAt     time.Time
}
