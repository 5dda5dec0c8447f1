package models

import (
	"time"
)

// TransactionType represents the direction of a funds movement
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// TransactionStatus represents the admin-review state of a transaction
type TransactionStatus string

const (
	TransactionPending  TransactionStatus = "pending"
	TransactionApproved TransactionStatus = "approved"
	TransactionRejected TransactionStatus = "rejected"
)

// Transaction represents a deposit or withdrawal request. Requests are
// created by users and stay pending until an admin reviews them; only an
// approved transaction moves the user's balance.
type Transaction struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Reference  string            `gorm:"uniqueIndex;size:36;not null" json:"reference"`
	UserID     uint              `gorm:"index;not null" json:"user_id"`
	Type       TransactionType   `gorm:"size:20;not null" json:"type"`
	Amount     float64           `gorm:"type:decimal(20,8);not null" json:"amount"`
	Status     TransactionStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AdminNote  string            `gorm:"size:255" json:"admin_note,omitempty"`
	ReviewedBy *uint             `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time        `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
