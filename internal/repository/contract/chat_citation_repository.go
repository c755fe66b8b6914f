package contract

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"
)

type ChatCitationRepository interface {
	CreateBulk(ctx context.Context, citations []*entity.ChatCitation) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatCitation, error)
}
