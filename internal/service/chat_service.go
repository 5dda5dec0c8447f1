package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cryptosim-ai/internal/models"
	"github.com/cryptosim-ai/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ChatService persists chat messages and fans them out over Redis pub/sub.
// Delivery is at-least-once across the push and poll paths; clients
// deduplicate by message_id.
type ChatService struct {
	chatRepo *repository.ChatRepository
	redis    *redis.Client
	log      *logrus.Logger
}

// NewChatService creates a new ChatService
func NewChatService(chatRepo *repository.ChatRepository, redisClient *redis.Client, log *logrus.Logger) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		redis:    redisClient,
		log:      log,
	}
}

func chatChannel(userID uint) string {
	return fmt.Sprintf("chat:%d", userID)
}

// SendMessage stores a message and publishes it to the user's channel
func (s *ChatService) SendMessage(ctx context.Context, userID uint, body string, fromAdmin bool) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		MessageID: uuid.New().String(),
		UserID:    userID,
		Body:      body,
		FromAdmin: fromAdmin,
	}
	if err := s.chatRepo.Create(msg); err != nil {
		return nil, err
	}

	// Push-path delivery; a failed publish is fine, polling picks it up
	if data, err := json.Marshal(msg); err == nil {
		if err := s.redis.Publish(ctx, chatChannel(userID), data).Err(); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("chat publish failed")
		}
	}

	return msg, nil
}

// GetMessagesAfter returns messages created after a point in time; this is
// the polling fallback for clients without a websocket.
func (s *ChatService) GetMessagesAfter(userID uint, after time.Time, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	return s.chatRepo.GetByUserAfter(userID, after, limit)
}

// GetRecentMessages returns the latest messages for a user
func (s *ChatService) GetRecentMessages(userID uint, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.chatRepo.GetRecentByUser(userID, limit)
}

// Subscribe opens a pub/sub subscription on the user's chat channel. The
// caller owns the subscription and must Close it.
func (s *ChatService) Subscribe(ctx context.Context, userID uint) *redis.PubSub {
	return s.redis.Subscribe(ctx, chatChannel(userID))
}
