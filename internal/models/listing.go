package models

import (
	"time"
)

// Listing is a published AI model record. IDs are ULID strings, so sorting
// by id descending doubles as a newest-first sort without a timestamp index.
//
// DeveloperEmail is a denormalized owner key, not a foreign id: the user
// whose email matches is the only one allowed to mutate or delete the row.
// Purchased is an advisory counter and may lag behind the receipt ledger.
type Listing struct {
	ID             string    `gorm:"primaryKey;size:26" json:"id"`
	ModelName      string    `gorm:"not null;size:255" json:"modelName"`
	Category       string    `gorm:"not null;size:100;index" json:"category"`
	Framework      string    `gorm:"not null;size:100" json:"framework"`
	UseCase        string    `gorm:"not null;type:text" json:"useCase"`
	Dataset        string    `gorm:"not null;type:text" json:"dataset"`
	Description    string    `gorm:"not null;type:text" json:"description"`
	ImageURL       string    `gorm:"not null;size:500" json:"imageUrl"`
	DeveloperEmail string    `gorm:"not null;size:255;index" json:"developerEmail"`
	Purchased      int64     `gorm:"not null;default:0" json:"purchased"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
