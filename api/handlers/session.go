// Package handlers provides HTTP API request handlers.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/youclicker/backend/internal/model"
	"github.com/youclicker/backend/internal/registry"
)

const (
	defaultQRSize = 256
	minQRSize     = 128
	maxQRSize     = 1024
)

// SessionHandler handles HTTP requests for session creation and lookup.
type SessionHandler struct {
	registry *registry.Registry
	gate     *AccessGate
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(reg *registry.Registry, gate *AccessGate) *SessionHandler {
	return &SessionHandler{
		registry: reg,
		gate:     gate,
	}
}

// CreateSessionRequest represents the request body for creating a session.
type CreateSessionRequest struct {
	Name string `json:"name"`
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func toSessionResponse(info model.SessionInfo) *SessionResponse {
	return &SessionResponse{
		ID:        info.ID,
		Name:      info.Name,
		CreatedAt: info.CreatedAt.Format(time.RFC3339),
	}
}

// Create handles POST /api/session - creates a new session. Privileged;
// the access gate runs before this handler.
func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	// The body is optional; a missing name falls back to the default.
	_ = c.ShouldBindJSON(&req)

	info := h.registry.Create(req.Name)
	c.JSON(http.StatusOK, gin.H{"id": info.ID})
}

// Get handles GET /api/session/:id - the stateless lookup front-ends use
// to validate a session before opening a channel.
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("id")

	info, err := h.registry.Info(sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+sessionID+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get session: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(info))
}

// QR handles GET /api/session/:id/qr - a PNG QR code of the student join
// URL for the session.
func (h *SessionHandler) QR(c *gin.Context) {
	sessionID := c.Param("id")

	if _, err := h.registry.Info(sessionID); err != nil {
		sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+sessionID+" not found")
		return
	}

	size := defaultQRSize
	if s := c.Query("size"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			size = parsed
		}
	}
	if size < minQRSize {
		size = minQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	joinURL := scheme + "://" + c.Request.Host + "/?session=" + sessionID

	png, err := qrcode.Encode(joinURL, qrcode.Medium, size)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to encode QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// Health handles GET /api/health.
func (h *SessionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RegisterRoutes registers the session handler routes on a Gin router group.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.POST("/session", h.gate.Require(), h.Create)
	rg.GET("/session/:id", h.Get)
	rg.GET("/session/:id/qr", h.QR)
}
