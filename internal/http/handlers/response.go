// Package handlers provides the HTTP handler implementations for the REST
// surface: rooms, message history, the translation probe, monitoring, and
// agent login.
//
// This file holds the response helpers every endpoint goes through.
// Failures always take the same shape so clients can branch on the code
// without parsing messages:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "room not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/captain-yun7/medtranslate-v1/internal/http/middleware"
)

// ErrorResponse is the uniform error envelope. RequestID echoes the
// X-Request-ID header so client reports can be matched to server logs;
// Code is one of the errors.go constants; Message is safe to show users.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// fail aborts the request with the error envelope. Server-side failures
// (5xx) also land in the request-scoped log.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail exposes fail to the router for NoRoute/NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success body as JSON.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
