package entity

import (
	"time"

	"github.com/google/uuid"
)

type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusFailed     DocumentStatus = "failed"
)

type Document struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectId    uuid.UUID `gorm:"type:uuid;index"`
	FileName     string
	ContentType  string
	StorageKey   string
	SourceURL    string
	Status       DocumentStatus
	ErrorMessage string
	ChunkCount   int
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
