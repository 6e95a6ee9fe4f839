// Agent authentication endpoint.
//
// POST /auth/login verifies an agent's credentials against the stored
// bcrypt hash and returns a signed bearer token. Unknown usernames and
// wrong passwords are indistinguishable to the caller.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/captain-yun7/medtranslate-v1/internal/auth"
	"github.com/captain-yun7/medtranslate-v1/internal/repo"
)

// LoginRequest is the JSON payload for agent login.
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=1,max=100"`
	Password string `json:"password" binding:"required,min=1,max=200"`
}

// LoginResponse carries the issued token and agent profile.
type LoginResponse struct {
	Token       string `json:"token"`
	AgentID     string `json:"agent_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Login handles POST /auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}

	agent, err := repo.GetAgentByUsername(c.Request.Context(), h.DB, req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not verify credentials")
		return
	}
	if !auth.VerifyPassword(agent.PasswordHash, req.Password) {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, err := h.Auth.Issue(agent.ID, agent.Username)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not issue token")
		return
	}

	ok(c, http.StatusOK, LoginResponse{
		Token:       token,
		AgentID:     agent.ID,
		Username:    agent.Username,
		DisplayName: agent.DisplayName,
	})
}
