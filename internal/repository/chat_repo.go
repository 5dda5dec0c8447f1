package repository

import (
	"time"

	"github.com/cryptosim-ai/internal/models"
	"gorm.io/gorm"
)

// ChatRepository handles chat message data access
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// Create creates a new chat message
func (r *ChatRepository) Create(msg *models.ChatMessage) error {
	return r.db.Create(msg).Error
}

// GetByUserAfter retrieves a user's messages created after a point in time.
// This is the polling fallback path; clients deduplicate by message_id.
func (r *ChatRepository) GetByUserAfter(userID uint, after time.Time, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	result := r.db.Where("user_id = ? AND created_at > ?", userID, after).
		Order("created_at ASC").
		Limit(limit).
		Find(&msgs)
	return msgs, result.Error
}

// GetRecentByUser retrieves the latest messages for a user
func (r *ChatRepository) GetRecentByUser(userID uint, limit int) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	result := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs)
	return msgs, result.Error
}
