package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"doc-chat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans document status updates out to clients subscribed per project.
type Hub struct {
	// ProjectID -> connected clients (a project can have many watchers)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ProjectID] = append(h.clients[client.ProjectID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"project_id": client.ProjectID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ProjectID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.ProjectID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.ProjectID]) == 0 {
					delete(h.clients, client.ProjectID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToProject delivers a status payload to every watcher of a project,
// locally and via Redis for other instances.
func (h *Hub) SendToProject(projectID uuid.UUID, payload map[string]interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "document_status",
		"data": payload,
	})

	h.mu.RLock()
	clients := h.clients[projectID]
	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping", map[string]interface{}{"project_id": projectID})
			close(client.Send)
			h.unregister <- client
		}
	}
	h.mu.RUnlock()

	if h.rdb != nil {
		clusterPayload, _ := json.Marshal(map[string]interface{}{
			"target_project_id": projectID.String(),
			"message":           json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), "cluster_events", clusterPayload)
	}
}

// subscribeToRedis relays status events published by other instances to
// locally connected clients.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetProjectID string          `json:"target_project_id"`
			Message         json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		projectID, err := uuid.Parse(payload.TargetProjectID)
		if err != nil {
			continue
		}

		h.mu.RLock()
		for _, client := range h.clients[projectID] {
			select {
			case client.Send <- payload.Message:
			default:
				close(client.Send)
				h.unregister <- client
			}
		}
		h.mu.RUnlock()
	}
}
