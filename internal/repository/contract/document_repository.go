package contract

import (
	"context"

	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	Update(ctx context.Context, document *entity.Document) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// CompareAndSetStatus transitions the document only when it is still in
	// the expected status. Returns false when another writer got there first.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next entity.DocumentStatus) (bool, error)

	// MarkFailed records the failure reason alongside the status change.
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// MarkReady records the final chunk count alongside the status change.
	MarkReady(ctx context.Context, id uuid.UUID, chunkCount int) error
}
