package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Receipt is durable proof that a buyer purchased a listing. Never updated
// after creation. The primary key is the deterministic composite
// "<modelID>-<buyerUID>", which makes a repeated write for the same pair a
// no-op instead of a duplicate row.
type Receipt struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	ModelID        string    `gorm:"not null;size:26;index" json:"modelId"`
	ModelName      string    `gorm:"not null;size:255" json:"modelName"`
	BuyerID        uuid.UUID `gorm:"type:uuid;not null;index" json:"buyerId"`
	BuyerEmail     string    `gorm:"not null;size:255" json:"buyerEmail"`
	DeveloperEmail string    `gorm:"not null;size:255" json:"developerEmail"`
	PurchaseDate   time.Time `gorm:"not null" json:"purchaseDate"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReceiptID builds the composite receipt key for a (listing, buyer) pair.
func ReceiptID(modelID string, buyerID uuid.UUID) string {
	return fmt.Sprintf("%s-%s", modelID, buyerID)
}
