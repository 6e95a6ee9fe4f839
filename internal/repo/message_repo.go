// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Message
// model: appending translated chat turns and reading back room history.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/captain-yun7/medtranslate-v1/internal/domain"
)

// CreateMessage inserts a chat turn for a room. The message ID is a
// randomly generated UUID, and CreatedAt is set to UTC unless the caller
// already stamped it.
func CreateMessage(ctx context.Context, db *gorm.DB, m *domain.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(m).Error
}

// ListMessagesPage returns a paginated slice of a room's messages, ordered
// oldest first so transcripts read top to bottom. Use CountMessages to
// obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListMessagesPage(ctx context.Context, db *gorm.DB, roomID string, offset, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at asc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountMessages returns the total number of messages in a room.
// On DB error, it returns the error.
func CountMessages(ctx context.Context, db *gorm.DB, roomID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("room_id = ?", roomID).
		Count(&total).Error
	return total, err
}
