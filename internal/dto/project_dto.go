package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=255"`
	LlmProvider  string `json:"llm_provider" validate:"required,oneof=ollama groq gemini"`
	LlmModelName string `json:"llm_model_name" validate:"required"`
}

type UpdateProjectProviderRequest struct {
	Id           uuid.UUID `json:"-"`
	LlmProvider  string    `json:"llm_provider" validate:"required,oneof=ollama groq gemini"`
	LlmModelName string    `json:"llm_model_name" validate:"required"`
}

type ProjectResponse struct {
	Id           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	LlmProvider  string    `json:"llm_provider"`
	LlmModelName string    `json:"llm_model_name"`
	CreatedAt    time.Time `json:"created_at"`
}
