// Package ledger is the authoritative record of purchases. Each buyer has
// their own partition of receipt rows; a receipt's identity is the
// deterministic (modelID, buyerID) composite key, which stands in for a
// distributed lock: two racing writers converge on the same row instead of
// producing duplicates.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modelmart/backend/internal/catalog"
	"github.com/modelmart/backend/internal/dto"
	"github.com/modelmart/backend/internal/models"
)

// ModelGetter is the slice of the catalog the ledger needs for enrichment.
type ModelGetter interface {
	GetModel(id string) (*models.Listing, error)
}

// Placeholder display values used when a receipt's listing can no longer
// be fetched.
const placeholderField = "N/A"

type Ledger struct {
	db      *gorm.DB
	catalog ModelGetter
}

func New(db *gorm.DB, catalog ModelGetter) *Ledger {
	return &Ledger{db: db, catalog: catalog}
}

// HasPurchased reports whether buyerID holds a receipt for modelID. Safe
// for anonymous callers: a nil buyer id is simply "no", not an error.
func (l *Ledger) HasPurchased(modelID string, buyerID uuid.UUID) (bool, error) {
	if buyerID == uuid.Nil {
		return false, nil
	}

	var count int64
	err := l.db.Model(&models.Receipt{}).
		Where("id = ?", models.ReceiptID(modelID, buyerID)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return count > 0, nil
}

// RecordPurchase writes exactly one receipt for (receipt.ModelID,
// receipt.BuyerID). Writing the same pair again is a no-op, never a
// duplicate: the deterministic primary key plus ON CONFLICT DO NOTHING
// makes the call idempotent.
func (l *Ledger) RecordPurchase(receipt *models.Receipt) error {
	if receipt.ModelID == "" || receipt.BuyerID == uuid.Nil {
		return errors.New("receipt requires modelId and buyerId")
	}

	receipt.ID = models.ReceiptID(receipt.ModelID, receipt.BuyerID)
	if receipt.PurchaseDate.IsZero() {
		receipt.PurchaseDate = time.Now().UTC()
	}

	err := l.db.Clauses(clause.OnConflict{DoNothing: true}).Create(receipt).Error
	if err != nil {
		return fmt.Errorf("failed to record purchase: %w", err)
	}
	return nil
}

// ListPurchases returns the buyer's receipts newest-first, each enriched
// with display fields from its listing. One listing failing to resolve
// does not fail the whole history; that row gets placeholders.
func (l *Ledger) ListPurchases(buyerID uuid.UUID) ([]dto.PurchaseHistoryItem, error) {
	var receipts []models.Receipt
	err := l.db.Where("buyer_id = ?", buyerID).
		Order("purchase_date DESC").
		Find(&receipts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	items := make([]dto.PurchaseHistoryItem, 0, len(receipts))
	for _, r := range receipts {
		item := dto.PurchaseHistoryItem{
			ReceiptID:      r.ID,
			ModelID:        r.ModelID,
			ModelName:      r.ModelName,
			BuyerEmail:     r.BuyerEmail,
			DeveloperEmail: r.DeveloperEmail,
			PurchaseDate:   r.PurchaseDate,
			Framework:      placeholderField,
			UseCase:        placeholderField,
			ImageURL:       "",
		}

		listing, err := l.catalog.GetModel(r.ModelID)
		if err != nil {
			if !errors.Is(err, catalog.ErrModelNotFound) {
				slog.Warn("purchase history enrichment failed", "model_id", r.ModelID, "error", err)
			}
		} else {
			item.Framework = listing.Framework
			item.UseCase = listing.UseCase
			item.ImageURL = listing.ImageURL
		}

		items = append(items, item)
	}
	return items, nil
}
