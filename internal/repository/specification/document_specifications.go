package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByProject scopes a query to one project
type ByProject struct {
	ProjectID uuid.UUID
}

func (s ByProject) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("project_id = ?", s.ProjectID)
}

// ByStatus filters documents by ingestion status
type ByStatus struct {
	Status string
}

func (s ByStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", s.Status)
}

// ByDocument scopes chunks to one document
type ByDocument struct {
	DocumentID uuid.UUID
}

func (s ByDocument) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("document_id = ?", s.DocumentID)
}
