package service

import (
	"context"
	"fmt"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/lexical"
	"doc-chat-be/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentService interface {
	Upload(ctx context.Context, projectId uuid.UUID, fileName, contentType string, data []byte) (*dto.DocumentResponse, error)
	IngestURL(ctx context.Context, request *dto.IngestURLRequest) (*dto.DocumentResponse, error)
	GetAll(ctx context.Context, projectId uuid.UUID) ([]*dto.DocumentResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type documentService struct {
	uowFactory   unitofwork.RepositoryFactory
	publisher    IPublisherService
	objectStore  storage.ObjectStore
	lexicalIndex *lexical.Index
	queryCache   IQueryCacheService
	logger       logger.ILogger
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	objectStore storage.ObjectStore,
	lexicalIndex *lexical.Index,
	queryCache IQueryCacheService,
	log logger.ILogger,
) IDocumentService {
	return &documentService{
		uowFactory:   uowFactory,
		publisher:    publisher,
		objectStore:  objectStore,
		lexicalIndex: lexicalIndex,
		queryCache:   queryCache,
		logger:       log,
	}
}

func toDocumentResponse(d *entity.Document) *dto.DocumentResponse {
	return &dto.DocumentResponse{
		Id:           d.Id,
		ProjectId:    d.ProjectId,
		FileName:     d.FileName,
		ContentType:  d.ContentType,
		Status:       string(d.Status),
		ErrorMessage: d.ErrorMessage,
		ChunkCount:   d.ChunkCount,
		CreatedAt:    d.CreatedAt,
	}
}

// Upload registers a document as pending, stores its raw bytes, and enqueues
// ingestion. The heavy work happens in the background worker; the caller gets
// the pending document back immediately.
func (s *documentService) Upload(ctx context.Context, projectId uuid.UUID, fileName, contentType string, data []byte) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: projectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "project not found")
	}

	document := &entity.Document{
		Id:          uuid.New(),
		ProjectId:   projectId,
		FileName:    fileName,
		ContentType: contentType,
		Status:      entity.DocumentStatusPending,
	}
	document.StorageKey = fmt.Sprintf("%s/%s", projectId, document.Id)

	if err := s.objectStore.Put(document.StorageKey, data); err != nil {
		return nil, fmt.Errorf("store document bytes: %w", err)
	}

	if err := uow.DocumentRepository().Create(ctx, document); err != nil {
		_ = s.objectStore.Delete(document.StorageKey)
		return nil, err
	}

	if err := s.publisher.PublishIngestDocument(ctx, document.Id); err != nil {
		s.logger.Error("DocumentService", "Failed to enqueue ingestion", map[string]interface{}{
			"document_id": document.Id, "error": err.Error(),
		})
		return nil, err
	}

	return toDocumentResponse(document), nil
}

// IngestURL registers a URL-sourced document; the worker fetches the content.
func (s *documentService) IngestURL(ctx context.Context, request *dto.IngestURLRequest) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: request.ProjectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "project not found")
	}

	document := &entity.Document{
		Id:        uuid.New(),
		ProjectId: request.ProjectId,
		FileName:  request.URL,
		SourceURL: request.URL,
		Status:    entity.DocumentStatusPending,
	}

	if err := uow.DocumentRepository().Create(ctx, document); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishIngestDocument(ctx, document.Id); err != nil {
		return nil, err
	}

	return toDocumentResponse(document), nil
}

func (s *documentService) GetAll(ctx context.Context, projectId uuid.UUID) ([]*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByProject{ProjectID: projectId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.DocumentResponse, len(documents))
	for i, d := range documents {
		responses[i] = toDocumentResponse(d)
	}
	return responses, nil
}

func (s *documentService) Show(ctx context.Context, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "document not found")
	}
	return toDocumentResponse(document), nil
}

// Delete removes the document and its chunks from every index: vector store,
// lexical index, object storage, and the cached answers derived from it.
func (s *documentService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DocumentRepository()

	document, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if document == nil {
		return fiber.NewError(fiber.StatusNotFound, "document not found")
	}

	if err := uow.ChunkRepository().DeleteByDocumentId(ctx, id); err != nil {
		return fmt.Errorf("delete document chunks: %w", err)
	}
	s.lexicalIndex.RemoveDocument(document.ProjectId, id)

	if document.StorageKey != "" {
		if err := s.objectStore.Delete(document.StorageKey); err != nil {
			s.logger.Warn("DocumentService", "Failed to delete stored bytes", map[string]interface{}{
				"document_id": id, "error": err.Error(),
			})
		}
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	s.queryCache.InvalidateProject(ctx, document.ProjectId)
	return nil
}
