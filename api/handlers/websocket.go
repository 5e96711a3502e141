package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/youclicker/backend/internal/ws"
)

// WebSocketHandler exposes the real-time channel endpoint.
type WebSocketHandler struct {
	wsHandler *ws.Handler
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler *ws.Handler) *WebSocketHandler {
	return &WebSocketHandler{wsHandler: wsHandler}
}

// Connect handles GET /ws - upgrades to a WebSocket channel. The channel
// stays role-less until its first join frame, so no validation happens here.
func (h *WebSocketHandler) Connect(c *gin.Context) {
	// Upgrade errors are written to the response by the upgrader.
	_ = h.wsHandler.HandleConnection(c.Writer, c.Request)
}

// RegisterRoutes registers the WebSocket route on a Gin engine. The path
// is fixed; every participant of every session connects here.
func (h *WebSocketHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/ws", h.Connect)
}
