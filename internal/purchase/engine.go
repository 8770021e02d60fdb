// Package purchase reconciles listing ownership with the receipt ledger
// and drives the buy transaction across both. It is the single place that
// decides whether a buy is permitted; every view consumes its states
// instead of re-deriving them.
package purchase

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/modelmart/backend/internal/models"
	"github.com/modelmart/backend/internal/session"
)

// Denial reasons. These are expected branches of the state machine, named
// so handlers can map them to messages without string matching; they are
// not transport failures.
var (
	ErrMustLogin        = errors.New("login required to purchase")
	ErrOwnListing       = errors.New("cannot purchase your own model")
	ErrAlreadyOwned     = errors.New("model already purchased")
	ErrPurchaseInFlight = errors.New("a purchase for this model is already in progress")

	// ErrLedgerUnavailable means the receipt ledger could not be read. The
	// pair's state is indeterminate; buying is refused rather than risking
	// a duplicate.
	ErrLedgerUnavailable = errors.New("purchase records are temporarily unavailable")
)

// Catalog is the slice of the listing service the engine needs.
type Catalog interface {
	GetModel(id string) (*models.Listing, error)
	IncrementPurchased(id string) error
}

// Receipts is the slice of the ledger the engine needs.
type Receipts interface {
	HasPurchased(modelID string, buyerID uuid.UUID) (bool, error)
	RecordPurchase(receipt *models.Receipt) error
}

// Engine enforces the purchase invariants for every (user, model) pair:
// at most one effective receipt, at most one in-flight transaction, owner
// can never buy. The receipt write is the source of truth; the listing's
// purchase counter is advisory and allowed to lag.
type Engine struct {
	catalog  Catalog
	receipts Receipts

	mu       sync.Mutex
	inFlight map[string]struct{} // keyed by composite receipt id
}

func NewEngine(catalog Catalog, receipts Receipts) *Engine {
	return &Engine{
		catalog:  catalog,
		receipts: receipts,
		inFlight: make(map[string]struct{}),
	}
}

// Status recomputes the reconciled state for viewer (nil = anonymous) and
// the given model. A ledger read failure yields StateIndeterminate with
// ErrLedgerUnavailable, never a false NotPurchased.
func (e *Engine) Status(viewer *session.Snapshot, modelID string) (State, error) {
	listing, err := e.catalog.GetModel(modelID)
	if err != nil {
		return "", err
	}

	if viewer == nil {
		return StateUnauthenticated, nil
	}
	if viewer.Email == listing.DeveloperEmail {
		return StateOwner, nil
	}
	if e.isInFlight(models.ReceiptID(modelID, viewer.UID)) {
		return StateInFlight, nil
	}

	owned, err := e.receipts.HasPurchased(modelID, viewer.UID)
	if err != nil {
		return StateIndeterminate, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if owned {
		return StatePurchased, nil
	}
	return StateNotPurchased, nil
}

// Buy runs the purchase transaction for viewer on modelID. It fails closed
// with a named reason when the state machine forbids the transition, and
// releases the in-flight slot on every exit path.
//
// Success requires only the receipt write. The advisory counter bump is
// attempted afterwards; its failure is logged and swallowed.
func (e *Engine) Buy(viewer *session.Snapshot, modelID string) (*models.Receipt, error) {
	if viewer == nil {
		return nil, ErrMustLogin
	}

	listing, err := e.catalog.GetModel(modelID)
	if err != nil {
		return nil, err
	}

	if viewer.Email == listing.DeveloperEmail {
		return nil, ErrOwnListing
	}

	// Claim the in-flight slot before the ledger check so two racing
	// intents within this process cannot both pass the check.
	key := models.ReceiptID(modelID, viewer.UID)
	if !e.acquire(key) {
		return nil, ErrPurchaseInFlight
	}
	defer e.release(key)

	owned, err := e.receipts.HasPurchased(modelID, viewer.UID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if owned {
		return nil, ErrAlreadyOwned
	}

	receipt := &models.Receipt{
		ModelID:        listing.ID,
		ModelName:      listing.ModelName,
		BuyerID:        viewer.UID,
		BuyerEmail:     viewer.Email,
		DeveloperEmail: listing.DeveloperEmail,
		PurchaseDate:   time.Now().UTC(),
	}
	if err := e.receipts.RecordPurchase(receipt); err != nil {
		// No receipt, no purchase: the pair stays NotPurchased.
		return nil, err
	}

	if err := e.catalog.IncrementPurchased(listing.ID); err != nil {
		slog.Warn("advisory purchase counter bump failed",
			"model_id", listing.ID, "buyer_id", viewer.UID, "error", err)
	}

	return receipt, nil
}

func (e *Engine) acquire(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[key]; busy {
		return false
	}
	e.inFlight[key] = struct{}{}
	return true
}

func (e *Engine) release(key string) {
	e.mu.Lock()
	delete(e.inFlight, key)
	e.mu.Unlock()
}

func (e *Engine) isInFlight(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, busy := e.inFlight[key]
	return busy
}
