package entity

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string
	LlmProvider  string
	LlmModelName string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
