// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the ChatRoom
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a room is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"gorm.io/gorm"

	"github.com/captain-yun7/medtranslate-v1/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across handlers and the relay.
var ErrNotFound = gorm.ErrRecordNotFound

// newRoomID returns an opaque identifier of the form "room_<12 hex chars>".
func newRoomID() string {
	var b [6]byte
	_, _ = rand.Read(b[:])
	return "room_" + hex.EncodeToString(b[:])
}

// CreateRoom inserts a new ChatRoom in waiting status for a customer
// speaking customerLanguage. The room ID is generated server-side and
// CreatedAt is set to UTC.
func CreateRoom(ctx context.Context, db *gorm.DB, customerLanguage string) (*domain.ChatRoom, error) {
	r := &domain.ChatRoom{
		ID:               newRoomID(),
		CustomerLanguage: customerLanguage,
		Status:           domain.RoomStatusWaiting,
		CreatedAt:        time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRoom fetches a single room by its ID. If the record does not exist,
// it returns ErrNotFound. On other DB errors, the raw error is returned.
func GetRoom(ctx context.Context, db *gorm.DB, id string) (*domain.ChatRoom, error) {
	var r domain.ChatRoom
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRooms returns rooms ordered by creation time descending, optionally
// filtered by status. A non-positive limit defaults to 50.
func ListRooms(ctx context.Context, db *gorm.DB, status string, limit int) ([]domain.ChatRoom, error) {
	if limit <= 0 {
		limit = 50
	}
	q := db.WithContext(ctx).Model(&domain.ChatRoom{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.ChatRoom
	err := q.Order("created_at desc").Limit(limit).Find(&out).Error
	return out, err
}

// AssignAgent marks the room active and records the agent taking it.
// Returns ErrNotFound if the room does not exist.
func AssignAgent(ctx context.Context, db *gorm.DB, id, agentID string) error {
	res := db.WithContext(ctx).
		Model(&domain.ChatRoom{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   domain.RoomStatusActive,
			"agent_id": agentID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// EndRoom marks the room ended and stamps EndedAt. Ending an already-ended
// room is idempotent; an unknown room returns ErrNotFound.
func EndRoom(ctx context.Context, db *gorm.DB, id string) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.ChatRoom{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   domain.RoomStatusEnded,
			"ended_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RoomStats returns aggregate room counts used by the monitoring surface:
// the total number of rooms and the per-status breakdown.
func RoomStats(ctx context.Context, db *gorm.DB) (total int64, byStatus map[string]int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.ChatRoom{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var rows []struct {
		Status string
		N      int64
	}
	err = db.WithContext(ctx).
		Model(&domain.ChatRoom{}).
		Select("status, count(*) as n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return 0, nil, err
	}

	byStatus = make(map[string]int64, len(rows))
	for _, r := range rows {
		byStatus[r.Status] = r.N
	}
	return total, byStatus, nil
}
