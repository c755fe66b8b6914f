package service

import (
	"context"
	"fmt"

	"doc-chat-be/internal/pkg/logger"
	"doc-chat-be/internal/websocket"
	"doc-chat-be/pkg/events"
	pkgnats "doc-chat-be/pkg/nats"

	"github.com/google/uuid"
)

// INotificationService bridges document lifecycle events on NATS into the
// websocket hub, so clients can subscribe to status changes instead of
// polling.
type INotificationService interface {
	Start() error
}

type notificationService struct {
	subscriber *pkgnats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewNotificationService(subscriber *pkgnats.Subscriber, hub *websocket.Hub, log logger.ILogger) INotificationService {
	return &notificationService{
		subscriber: subscriber,
		hub:        hub,
		logger:     log,
	}
}

func (s *notificationService) Start() error {
	if s.subscriber == nil {
		s.logger.Warn("Notification", "NATS subscriber unavailable, status push disabled", nil)
		return nil
	}

	for _, eventType := range []string{events.EventDocumentReady, events.EventDocumentFailed} {
		subject := fmt.Sprintf("events.%s", eventType)
		durable := fmt.Sprintf("doc-status-%s", eventType)
		if err := s.subscriber.Subscribe(subject, durable, s.handleEvent); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

func (s *notificationService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()

	projectIdStr, _ := payload["project_id"].(string)
	projectID, err := uuid.Parse(projectIdStr)
	if err != nil {
		s.logger.Warn("Notification", "Event without valid project id", map[string]interface{}{"event": event.EventType()})
		return nil
	}

	s.hub.SendToProject(projectID, payload)
	return nil
}
