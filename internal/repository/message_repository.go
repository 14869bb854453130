package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"studymate/internal/model"
)

const (
	DefaultMessageLimit = 100
	MaxMessageLimit     = 200
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) ListByConversationID(ctx context.Context, conversationID uint, limit int) ([]model.Message, error) {
	limit = NormalizeMessageLimit(limit)

	var messages []model.Message
	if err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at ASC").Order("id ASC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

// NormalizeMessageLimit maps a requested history size onto the range the
// repository serves.
func NormalizeMessageLimit(limit int) int {
	if limit <= 0 || limit > MaxMessageLimit {
		return DefaultMessageLimit
	}
	return limit
}
