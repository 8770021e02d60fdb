package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a registered account. Email doubles as the business key that
// links a user to the listings they develop (Listing.DeveloperEmail).
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password    string         `gorm:"not null" json:"-"`
	DisplayName string         `gorm:"size:100" json:"displayName"`
	PhotoURL    string         `gorm:"size:500" json:"photoURL"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
