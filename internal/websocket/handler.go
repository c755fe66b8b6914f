package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Handler upgrades HTTP connections into project status subscriptions.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) RegisterRoutes(r fiber.Router) {
	ws := r.Group("/ws/v1")
	ws.Use(func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	ws.Get("/projects/:id/status", websocket.New(h.serve))
}

func (h *Handler) serve(conn *websocket.Conn) {
	projectID, err := uuid.Parse(conn.Params("id"))
	if err != nil {
		conn.Close()
		return
	}

	client := &Client{
		Hub:       h.hub,
		Conn:      conn,
		ProjectID: projectID,
		Send:      make(chan []byte, 64),
	}
	h.hub.register <- client

	go client.writePump()
	client.readPump()
}
