package models

import (
	"time"
)

// ChatMessage is one message in the support chat widget. MessageID is the
// client-facing identifier used for deduplication across the websocket and
// polling delivery paths.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MessageID string    `gorm:"uniqueIndex;size:36;not null" json:"message_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Body      string    `gorm:"size:2000;not null" json:"body"`
	FromAdmin bool      `gorm:"default:false" json:"from_admin"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for ChatMessage model
func (ChatMessage) TableName() string {
	return "chat_messages"
}
