package dto

import (
	"time"

	"github.com/google/uuid"
)

type IngestURLRequest struct {
	ProjectId uuid.UUID `json:"-"`
	URL       string    `json:"url" validate:"required,url"`
}

type DocumentResponse struct {
	Id           uuid.UUID `json:"id"`
	ProjectId    uuid.UUID `json:"project_id"`
	FileName     string    `json:"file_name"`
	ContentType  string    `json:"content_type"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ChunkCount   int       `json:"chunk_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublishIngestDocumentMessage is the ingestion queue payload.
type PublishIngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
