package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatCitation struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	MessageId     uuid.UUID `gorm:"type:uuid;not null;index"`
	ChunkId       uuid.UUID `gorm:"type:uuid;not null"`
	DocumentId    uuid.UUID `gorm:"type:uuid;not null"`
	Marker        string    `gorm:"type:varchar(10)"`
	SequenceIndex int       `gorm:"default:0"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (ChatCitation) TableName() string {
	return "chat_citations"
}
