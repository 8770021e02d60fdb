package handlers

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/modelmart/backend/internal/catalog"
	"github.com/modelmart/backend/internal/dto"
	"github.com/modelmart/backend/internal/ledger"
	"github.com/modelmart/backend/internal/purchase"
	"github.com/modelmart/backend/internal/session"
)

type PurchaseHandler struct {
	engine   *purchase.Engine
	ledger   *ledger.Ledger
	sessions *session.Holder
}

func NewPurchaseHandler(engine *purchase.Engine, l *ledger.Ledger, sessions *session.Holder) *PurchaseHandler {
	return &PurchaseHandler{engine: engine, ledger: l, sessions: sessions}
}

// Buy handles POST /purchase-model: the reconciled purchase transaction.
func (h *PurchaseHandler) Buy(c *fiber.Ctx) error {
	viewer := h.viewer(c)

	var req dto.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.ModelID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "modelId is required",
		})
	}

	receipt, err := h.engine.Buy(viewer, req.ModelID)
	if err != nil {
		return h.buyError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.PurchaseResponse{
		Message:   fmt.Sprintf("Thank you for buying %s! A receipt has been recorded.", receipt.ModelName),
		ReceiptID: receipt.ID,
		State:     string(purchase.StatePurchased),
	})
}

// Status handles GET /purchase-model/:id/status. Works for anonymous
// viewers too (optional auth): they get the unauthenticated state.
func (h *PurchaseHandler) Status(c *fiber.Ctx) error {
	viewer := h.viewer(c)

	state, err := h.engine.Status(viewer, c.Params("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrModelNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Model not found",
			})
		}
		if errors.Is(err, purchase.ErrLedgerUnavailable) {
			// Indeterminate is a real state, not a 5xx: the client must
			// render it without re-opening the buy affordance.
			return c.JSON(dto.PurchaseStatusResponse{
				State:  string(state),
				Reason: purchase.ErrLedgerUnavailable.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to resolve purchase status",
		})
	}

	return c.JSON(dto.PurchaseStatusResponse{State: string(state)})
}

// History handles GET /purchase-history for the signed-in buyer.
func (h *PurchaseHandler) History(c *fiber.Ctx) error {
	viewer := h.viewer(c)
	if viewer == nil {
		return unauthorized(c)
	}

	items, err := h.ledger.ListPurchases(viewer.UID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load purchase history",
		})
	}

	return c.JSON(dto.PurchaseHistoryResponse{
		BuyerEmail:     viewer.Email,
		TotalPurchases: len(items),
		Purchases:      items,
	})
}

func (h *PurchaseHandler) buyError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, purchase.ErrMustLogin):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, purchase.ErrOwnListing):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, purchase.ErrAlreadyOwned),
		errors.Is(err, purchase.ErrPurchaseInFlight):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	case errors.Is(err, catalog.ErrModelNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Model not found",
		})
	case errors.Is(err, purchase.ErrLedgerUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Transaction failed",
		})
	}
}

func (h *PurchaseHandler) viewer(c *fiber.Ctx) *session.Snapshot {
	uid, err := session.FromRequest(c)
	if err != nil || uid == uuid.Nil {
		return nil
	}
	snap, err := h.sessions.Current(uid)
	if err != nil {
		return nil
	}
	return snap
}
