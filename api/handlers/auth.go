package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AccessGate guards privileged actions with a shared access code. The
// real-time core performs no authentication of its own; it trusts this
// gate's decision.
type AccessGate struct {
	code string
}

// NewAccessGate creates an AccessGate for the given access code.
func NewAccessGate(code string) *AccessGate {
	return &AccessGate{code: code}
}

// valid compares a caller-supplied code in constant time.
func (g *AccessGate) valid(code string) bool {
	return code != "" && subtle.ConstantTimeCompare([]byte(code), []byte(g.code)) == 1
}

// Require is a middleware that rejects requests without a valid access
// code in the X-Access-Code header.
func (g *AccessGate) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.valid(c.GetHeader("X-Access-Code")) {
			sendError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid access code")
			c.Abort()
			return
		}
		c.Next()
	}
}

// loginRequest is the body of a teacher login verification.
type loginRequest struct {
	Code string `json:"code"`
}

// Login handles POST /api/teacher/login - stateless verification of the
// access code, used by the front-end before any privileged request.
func (g *AccessGate) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	if !g.valid(req.Code) {
		sendError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid code")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// RegisterRoutes registers the auth routes on a Gin router group.
func (g *AccessGate) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/teacher/login", g.Login)
}
