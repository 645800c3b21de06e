package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the account row behind every session and listing.
type User struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email         string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash  string     `gorm:"column:password_hash;not null"`
	FirstName     string     `gorm:"column:first_name;not null"`
	LastName      string     `gorm:"column:last_name;not null"`
	PhoneNumber   *string    `gorm:"column:phone_number"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	EmailVerified bool       `gorm:"column:email_verified;not null;default:false"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
