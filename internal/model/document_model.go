package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	FileName     string         `gorm:"type:varchar(512)"`
	ContentType  string         `gorm:"type:varchar(255)"`
	StorageKey   string         `gorm:"type:varchar(512)"`
	SourceURL    string         `gorm:"type:text"`
	Status       string         `gorm:"type:varchar(20);not null;default:'pending';index"`
	ErrorMessage string         `gorm:"type:text"`
	ChunkCount   int            `gorm:"default:0"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
