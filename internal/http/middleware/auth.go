// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides bearer-token authentication for agent-only endpoints.
// Token verification itself is delegated to a VerifyFunc so the middleware
// stays decoupled from the signing implementation.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// VerifyFunc validates a bearer token and returns the authenticated agent's
// ID and username. A non-nil error rejects the request with 401.
type VerifyFunc func(token string) (agentID, username string, err error)

// AgentAuth returns a middleware that requires a valid "Authorization:
// Bearer <token>" header. On success it stores "agentID" and
// "agentUsername" in the Gin context for downstream handlers, the rate
// limiter, and the access logger.
func AgentAuth(verify VerifyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		agentID, username, err := verify(strings.TrimSpace(token))
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set("agentID", agentID)
		c.Set("agentUsername", username)
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
