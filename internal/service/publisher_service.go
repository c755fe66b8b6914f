package service

import (
	"context"
	"encoding/json"
	"fmt"

	"doc-chat-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IPublisherService interface {
	PublishIngestDocument(ctx context.Context, documentId uuid.UUID) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (s *publisherService) PublishIngestDocument(ctx context.Context, documentId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishIngestDocumentMessage{DocumentId: documentId})
	if err != nil {
		return fmt.Errorf("marshal ingest message: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		return fmt.Errorf("publish ingest message: %w", err)
	}
	return nil
}
