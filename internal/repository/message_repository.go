package repository

import (
	"fmt"

	"gorm.io/gorm"

	"tenantbot/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.ChatMessage) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create chat message failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListBySession(tenantID, botID, sessionID string, limit int) ([]model.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var messages []model.ChatMessage
	err := r.db.Where("tenant_id = ? AND bot_id = ? AND session_id = ?", tenantID, botID, sessionID).
		Order("created_at ASC, id ASC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list chat messages failed: %w", err)
	}
	return messages, nil
}
