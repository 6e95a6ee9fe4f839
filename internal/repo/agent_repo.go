// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Agent
// model used by the authentication layer.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/captain-yun7/medtranslate-v1/internal/domain"
)

// CreateAgent inserts a new agent account. The caller supplies the
// already-hashed password; plaintext never reaches this layer.
func CreateAgent(ctx context.Context, db *gorm.DB, username, passwordHash, displayName string) (*domain.Agent, error) {
	now := time.Now().UTC()
	a := &domain.Agent{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// GetAgentByUsername fetches an agent by its unique username. If the record
// does not exist, it returns ErrNotFound.
func GetAgentByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Agent, error) {
	var a domain.Agent
	err := db.WithContext(ctx).
		Where("username = ?", username).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
