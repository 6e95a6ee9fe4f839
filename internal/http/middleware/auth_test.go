package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func authRouter(verify VerifyFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AgentAuth(verify))
	r.GET("/secure", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"agent_id": c.GetString("agentID"),
			"username": c.GetString("agentUsername"),
		})
	})
	return r
}

func TestAgentAuth_MissingHeader(t *testing.T) {
	r := authRouter(func(string) (string, string, error) {
		t.Fatal("verify must not be called without a token")
		return "", "", nil
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); got == "" {
		t.Fatal("missing WWW-Authenticate header")
	}
}

func TestAgentAuth_InvalidToken(t *testing.T) {
	r := authRouter(func(string) (string, string, error) {
		return "", "", errors.New("bad token")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer nope")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAgentAuth_ValidTokenSetsIdentity(t *testing.T) {
	r := authRouter(func(token string) (string, string, error) {
		if token != "good" {
			return "", "", errors.New("bad token")
		}
		return "agent-1", "kim", nil
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "agent-1") || !strings.Contains(body, "kim") {
		t.Fatalf("identity not propagated: %s", body)
	}
}
