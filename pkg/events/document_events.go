package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventDocumentReady  = "DOCUMENT_READY"
	EventDocumentFailed = "DOCUMENT_FAILED"
)

// NewDocumentReadyEvent signals that ingestion finished and the document is
// answerable.
func NewDocumentReadyEvent(documentId, projectId uuid.UUID, chunkCount int) Event {
	return BaseEvent{
		Type: EventDocumentReady,
		Data: map[string]interface{}{
			"document_id": documentId.String(),
			"project_id":  projectId.String(),
			"status":      "ready",
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

// NewDocumentFailedEvent signals a terminal ingestion failure.
func NewDocumentFailedEvent(documentId, projectId uuid.UUID, reason string) Event {
	return BaseEvent{
		Type: EventDocumentFailed,
		Data: map[string]interface{}{
			"document_id": documentId.String(),
			"project_id":  projectId.String(),
			"status":      "failed",
			"error":       reason,
		},
		OccurredAt: time.Now(),
	}
}
