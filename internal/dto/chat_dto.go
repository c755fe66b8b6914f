package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	ProjectId uuid.UUID `json:"project_id" validate:"required"`
}

type SessionResponse struct {
	Id        uuid.UUID `json:"id"`
	ProjectId uuid.UUID `json:"project_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type SendChatRequest struct {
	SessionId uuid.UUID `json:"session_id" validate:"required"`
	Question  string    `json:"question" validate:"required,min=1"`
}

type CitationResponse struct {
	Marker        string    `json:"marker"`
	ChunkId       uuid.UUID `json:"chunk_id"`
	DocumentId    uuid.UUID `json:"document_id"`
	SequenceIndex int       `json:"sequence_index"`
}

type SendChatResponse struct {
	Answer    string             `json:"answer"`
	Citations []CitationResponse `json:"citations"`
	Cached    bool               `json:"cached"`
}

type ChatHistoryResponse struct {
	Id        uuid.UUID          `json:"id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Citations []CitationResponse `json:"citations,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}
