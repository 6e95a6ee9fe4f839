// Chat room HTTP handlers.
//
// This file exposes REST endpoints for room resources:
//   - POST   /rooms                (create waiting room)
//   - GET    /rooms                (list, optional status filter)
//   - GET    /rooms/waiting        (live sessions still waiting for an agent)
//   - GET    /rooms/{id}           (fetch one, with live session state)
//   - GET    /rooms/{id}/messages  (history, paginated)
//   - DELETE /rooms/{id}           (end the chat)
//
// Handlers are transport-thin: they validate input, call the persistence
// and session layers, and translate results into HTTP responses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/captain-yun7/medtranslate-v1/internal/auth"
	"github.com/captain-yun7/medtranslate-v1/internal/cache"
	"github.com/captain-yun7/medtranslate-v1/internal/domain"
	"github.com/captain-yun7/medtranslate-v1/internal/repo"
	"github.com/captain-yun7/medtranslate-v1/internal/session"
	"github.com/captain-yun7/medtranslate-v1/internal/translate"
	"github.com/captain-yun7/medtranslate-v1/internal/utils"
)

//
// Handler wiring
//

// Handlers groups HTTP endpoints for rooms, translation, monitoring, and
// agent authentication. The relay owns the live websocket path; these
// handlers cover the REST surface around it.
type Handlers struct {
	DB         *gorm.DB
	Translator *translate.Service
	Cache      *cache.Redis
	Registry   *session.Registry
	Auth       *auth.Issuer
}

// New constructs and returns a Handlers instance bound to the given
// dependencies.
func New(db *gorm.DB, tr *translate.Service, store *cache.Redis, reg *session.Registry, iss *auth.Issuer) *Handlers {
	return &Handlers{DB: db, Translator: tr, Cache: store, Registry: reg, Auth: iss}
}

//
// DTOs
//

// CreateRoomRequest is the JSON payload for creating a room.
type CreateRoomRequest struct {
	// CustomerLanguage is the BCP-47 code the customer speaks (e.g. "vi").
	CustomerLanguage string `json:"customer_language" binding:"required,min=2,max=10"`
}

// RoomResponse augments the persisted room with live session state.
type RoomResponse struct {
	domain.ChatRoom
	// Online reports whether a live session currently exists for this room.
	Online bool `json:"online"`
	// LiveStatus is the in-memory session status when Online, else "".
	LiveStatus string `json:"live_status,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListMessagesResponse wraps a page of messages and pagination information.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 50
		maxPageSize     = 200
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

//
// Endpoints
//

// CreateRoom handles POST /rooms. It persists a waiting room for a customer
// speaking the given language and returns it with 201.
func (h *Handlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "customer_language is required")
		return
	}

	room, err := repo.CreateRoom(c.Request.Context(), h.DB, req.CustomerLanguage)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create room")
		return
	}
	ok(c, http.StatusCreated, room)
}

// ListRooms handles GET /rooms. The optional "status" query filters by room
// status; "limit" caps the result (default 50).
func (h *Handlers) ListRooms(c *gin.Context) {
	status := c.Query("status")
	switch status {
	case "", domain.RoomStatusWaiting, domain.RoomStatusActive, domain.RoomStatusEnded:
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status filter")
		return
	}

	rooms, err := repo.ListRooms(c.Request.Context(), h.DB, status, utils.AtoiDefault(c.Query("limit"), 0))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list rooms")
		return
	}
	ok(c, http.StatusOK, gin.H{"rooms": rooms, "count": len(rooms)})
}

// WaitingRooms handles GET /rooms/waiting. It reports the live registry
// view, not the database: only rooms with an open customer connection and no
// agent yet appear here.
func (h *Handlers) WaitingRooms(c *gin.Context) {
	waiting := h.Registry.ListWaiting()
	ok(c, http.StatusOK, gin.H{"rooms": waiting, "count": len(waiting)})
}

// GetRoom handles GET /rooms/{id}. The response merges the persisted row
// with the live session view, if one exists.
func (h *Handlers) GetRoom(c *gin.Context) {
	id := c.Param("id")

	room, err := repo.GetRoom(c.Request.Context(), h.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not fetch room")
		return
	}

	resp := RoomResponse{ChatRoom: *room}
	if sess, found := h.Registry.Get(id); found {
		resp.Online = true
		resp.LiveStatus = sess.Status
	}
	ok(c, http.StatusOK, resp)
}

// ListRoomMessages handles GET /rooms/{id}/messages. History is returned
// oldest first so transcripts read top to bottom.
func (h *Handlers) ListRoomMessages(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := repo.GetRoom(ctx, h.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not fetch room")
		return
	}

	page, pageSize := clampPagination(c)
	total, err := repo.CountMessages(ctx, h.DB, id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not count messages")
		return
	}
	msgs, err := repo.ListMessagesPage(ctx, h.DB, id, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list messages")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages: msgs,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// EndRoom handles DELETE /rooms/{id}. It ends the live session (if any) and
// marks the persisted row ended. Ending an already-ended room succeeds.
func (h *Handlers) EndRoom(c *gin.Context) {
	id := c.Param("id")

	h.Registry.End(id)

	if err := repo.EndRoom(c.Request.Context(), h.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "room not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeEndFailed, "could not end room")
		return
	}
	ok(c, http.StatusOK, gin.H{"room_id": id, "status": domain.RoomStatusEnded})
}
