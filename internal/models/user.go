package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the access level of a user
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
)

// User represents a registered user
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email          string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	PasswordHash   string         `gorm:"size:255;not null" json:"-"`
	Role           UserRole       `gorm:"size:20;not null;default:'user'" json:"role"`
	Balance        float64        `gorm:"type:decimal(20,8);default:0" json:"balance"`
	TotalDeposited float64        `gorm:"type:decimal(20,8);default:0" json:"total_deposited"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Transactions []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
