package handler

import (
	"oneask-be/internal/pkg/logger"
	internalWS "oneask-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// IndexingHandler exposes the websocket stream of indexing-status updates.
type IndexingHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewIndexingHandler(hub *internalWS.Hub, log logger.ILogger) *IndexingHandler {
	return &IndexingHandler{
		hub:    hub,
		logger: log,
	}
}

func (h *IndexingHandler) RegisterRoutes(r fiber.Router) {
	ws := r.Group("/ws")
	ws.Get("/indexing", h.ServeWs)
}

// ServeWs upgrades the request and attaches the client to the hub.
func (h *IndexingHandler) ServeWs(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("IndexingHandler", "WebSocket session started", nil)
			internalWS.ServeWs(h.hub, conn)
			h.logger.Info("IndexingHandler", "WebSocket session ended", nil)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}
