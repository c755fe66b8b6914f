package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"doc-chat-be/internal/dto"
	"doc-chat-be/internal/entity"
	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/repository/specification"
	"doc-chat-be/internal/repository/unitofwork"
	"doc-chat-be/pkg/events"
	"doc-chat-be/pkg/lexical"
	"doc-chat-be/pkg/rag/ingest"
	"doc-chat-be/pkg/storage"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IIngestionService interface {
	Consume(ctx context.Context) error
	RebuildLexicalIndex(ctx context.Context) error
	RecoverStalled(ctx context.Context) error
}

// eventPublisher is the NATS publisher surface this service needs.
type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ingestionService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	workers     int
	uowFactory  unitofwork.RepositoryFactory
	pipeline    *ingest.Pipeline
	objectStore storage.ObjectStore
	natsPub     eventPublisher
	queryCache  IQueryCacheService
	lexical     *lexical.Index
	httpClient  *http.Client
	logger      logger.ILogger
}

func NewIngestionService(
	pubSub *gochannel.GoChannel,
	topicName string,
	workers int,
	uowFactory unitofwork.RepositoryFactory,
	pipeline *ingest.Pipeline,
	objectStore storage.ObjectStore,
	natsPub eventPublisher,
	queryCache IQueryCacheService,
	lexicalIndex *lexical.Index,
	log logger.ILogger,
) IIngestionService {
	if workers <= 0 {
		workers = 1
	}
	return &ingestionService{
		pubSub:      pubSub,
		topicName:   topicName,
		workers:     workers,
		uowFactory:  uowFactory,
		pipeline:    pipeline,
		objectStore: objectStore,
		natsPub:     natsPub,
		queryCache:  queryCache,
		lexical:     lexicalIndex,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		logger:      log,
	}
}

func (s *ingestionService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	for i := 0; i < s.workers; i++ {
		go func() {
			for msg := range messages {
				s.processMessage(ctx, msg)
			}
		}()
	}
	return nil
}

// processMessage drives the pending -> processing -> ready|failed state
// machine for one document. The status CAS makes this worker the single
// writer; everything after it is safe to run without further coordination.
func (s *ingestionService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("Ingestion", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DocumentRepository()

	document, err := repo.FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		s.logger.Error("Ingestion", "Failed to load document", map[string]interface{}{
			"document_id": payload.DocumentId, "error": err.Error(),
		})
		msg.Nack()
		return
	}
	if document == nil {
		msg.Ack() // Document deleted before processing
		return
	}

	// At-least-once delivery: a redelivered ready document is a no-op.
	if document.Status == entity.DocumentStatusReady {
		msg.Ack()
		return
	}

	claimed, err := repo.CompareAndSetStatus(ctx, document.Id, entity.DocumentStatusPending, entity.DocumentStatusProcessing)
	if err != nil {
		msg.Nack()
		return
	}
	if !claimed {
		// Another worker holds it, or it already reached a terminal state.
		s.logger.Warn("Ingestion", "Skipping document not in pending state", map[string]interface{}{
			"document_id": document.Id, "status": document.Status,
		})
		msg.Ack()
		return
	}

	data, err := s.loadBytes(ctx, uow, document)
	if err != nil {
		s.fail(ctx, uow, document, fmt.Sprintf("load content: %v", err))
		msg.Ack()
		return
	}

	count, err := s.pipeline.Process(ctx, ingest.Document{
		ID:          document.Id,
		ProjectID:   document.ProjectId,
		ContentType: document.ContentType,
	}, data)
	if err != nil {
		s.fail(ctx, uow, document, err.Error())
		msg.Ack()
		return
	}

	if err := repo.MarkReady(ctx, document.Id, count); err != nil {
		s.logger.Error("Ingestion", "Failed to mark document ready", map[string]interface{}{
			"document_id": document.Id, "error": err.Error(),
		})
		msg.Nack()
		return
	}

	s.queryCache.InvalidateProject(ctx, document.ProjectId)
	s.publishEvent(ctx, events.NewDocumentReadyEvent(document.Id, document.ProjectId, count))

	s.logger.Info("Ingestion", "Document ready", map[string]interface{}{
		"document_id": document.Id, "chunks": count,
	})
	msg.Ack()
}

func (s *ingestionService) loadBytes(ctx context.Context, uow unitofwork.UnitOfWork, document *entity.Document) ([]byte, error) {
	if document.StorageKey != "" {
		return s.objectStore.Get(document.StorageKey)
	}
	if document.SourceURL == "" {
		return nil, fmt.Errorf("document has neither stored bytes nor a source URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, document.SourceURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch returned status %d", res.StatusCode)
	}

	if document.ContentType == "" {
		document.ContentType = res.Header.Get("Content-Type")
		if err := uow.DocumentRepository().Update(ctx, document); err != nil {
			s.logger.Warn("Ingestion", "Failed to persist content type", map[string]interface{}{
				"document_id": document.Id, "error": err.Error(),
			})
		}
	}

	return io.ReadAll(res.Body)
}

// fail marks the document failed and scrubs any partial writes, so a failed
// document never contributes chunks to retrieval.
func (s *ingestionService) fail(ctx context.Context, uow unitofwork.UnitOfWork, document *entity.Document, reason string) {
	s.pipeline.Cleanup(ctx, ingest.Document{ID: document.Id, ProjectID: document.ProjectId})

	if err := uow.DocumentRepository().MarkFailed(ctx, document.Id, reason); err != nil {
		s.logger.Error("Ingestion", "Failed to mark document failed", map[string]interface{}{
			"document_id": document.Id, "error": err.Error(),
		})
	}

	s.queryCache.InvalidateProject(ctx, document.ProjectId)
	s.publishEvent(ctx, events.NewDocumentFailedEvent(document.Id, document.ProjectId, reason))

	s.logger.Error("Ingestion", "Document ingestion failed", map[string]interface{}{
		"document_id": document.Id, "reason": reason,
	})
}

func (s *ingestionService) publishEvent(ctx context.Context, event events.Event) {
	if s.natsPub == nil {
		return
	}
	if err := s.natsPub.Publish(ctx, event); err != nil {
		s.logger.Warn("Ingestion", "Failed to publish lifecycle event", map[string]interface{}{
			"event": event.EventType(), "error": err.Error(),
		})
	}
}

// RebuildLexicalIndex repopulates the in-memory index from the chunk table.
// Postgres is the source of truth; the lexical index is a startup-time
// projection of it.
func (s *ingestionService) RebuildLexicalIndex(ctx context.Context) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByStatus{Status: string(entity.DocumentStatusReady)},
	)
	if err != nil {
		return fmt.Errorf("load ready documents: %w", err)
	}

	total := 0
	for _, document := range documents {
		chunks, err := uow.ChunkRepository().FindAll(ctx,
			specification.ByDocument{DocumentID: document.Id},
		)
		if err != nil {
			return fmt.Errorf("load chunks for document %s: %w", document.Id, err)
		}
		for _, chunk := range chunks {
			s.lexical.Add(chunk.ProjectId, chunk.DocumentId, chunk.Id, chunk.SequenceIndex, chunk.Content)
		}
		total += len(chunks)
	}

	s.logger.Info("Ingestion", "Lexical index rebuilt", map[string]interface{}{
		"documents": len(documents), "chunks": total,
	})
	return nil
}

// RecoverStalled fails documents left in processing by a crashed worker.
// Their partial chunks are scrubbed; a resubmit starts them over.
func (s *ingestionService) RecoverStalled(ctx context.Context) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	stalled, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByStatus{Status: string(entity.DocumentStatusProcessing)},
	)
	if err != nil {
		return err
	}

	for _, document := range stalled {
		s.fail(ctx, uow, document, "processing interrupted by restart")
	}
	if len(stalled) > 0 {
		s.logger.Warn("Ingestion", "Recovered stalled documents", map[string]interface{}{"count": len(stalled)})
	}
	return nil
}
