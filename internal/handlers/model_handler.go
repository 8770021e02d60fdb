package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/modelmart/backend/internal/catalog"
	"github.com/modelmart/backend/internal/dto"
	"github.com/modelmart/backend/internal/session"
)

// DefaultLatestLimit caps GET /models/latest when no limit is given.
const DefaultLatestLimit = 6

type ModelHandler struct {
	catalog  *catalog.Service
	sessions *session.Holder
}

func NewModelHandler(svc *catalog.Service, sessions *session.Holder) *ModelHandler {
	return &ModelHandler{catalog: svc, sessions: sessions}
}

// List handles GET /models with optional category and email (owner) filters.
func (h *ModelHandler) List(c *fiber.Ctx) error {
	filter := catalog.ListFilter{
		Category:   c.Query("category"),
		OwnerEmail: c.Query("email"),
	}

	listings, err := h.catalog.ListModels(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load models",
		})
	}
	return c.JSON(listings)
}

// Latest handles GET /models/latest?limit=N.
func (h *ModelHandler) Latest(c *fiber.Ctx) error {
	limit := DefaultLatestLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "limit must be a positive integer",
			})
		}
		limit = n
	}

	listings, err := h.catalog.ListModels(catalog.ListFilter{LimitLatest: limit})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load models",
		})
	}
	return c.JSON(listings)
}

// Get handles GET /models/:id.
func (h *ModelHandler) Get(c *fiber.Ctx) error {
	listing, err := h.catalog.GetModel(c.Params("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrModelNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Model not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load model",
		})
	}
	return c.JSON(listing)
}

// Create handles POST /models. The developer email comes from the verified
// credential, never from the request body.
func (h *ModelHandler) Create(c *fiber.Ctx) error {
	snap, ok := h.viewer(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.CreateModelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	listing, err := h.catalog.CreateModel(snap.Email, &req)
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: verr.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create model",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(listing)
}

// Update handles PATCH /models/:id.
func (h *ModelHandler) Update(c *fiber.Ctx) error {
	snap, ok := h.viewer(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.UpdateModelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	listing, err := h.catalog.UpdateModel(c.Params("id"), snap.Email, &req)
	if err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(listing)
}

// Delete handles DELETE /models/:id and reports a deleted count.
func (h *ModelHandler) Delete(c *fiber.Ctx) error {
	snap, ok := h.viewer(c)
	if !ok {
		return unauthorized(c)
	}

	deleted, err := h.catalog.DeleteModel(c.Params("id"), snap.Email)
	if err != nil {
		return h.mutationError(c, err)
	}
	return c.JSON(dto.DeleteModelResponse{DeletedCount: deleted})
}

// IncrementPurchase handles PATCH /models/purchase/:id, the advisory
// counter endpoint.
func (h *ModelHandler) IncrementPurchase(c *fiber.Ctx) error {
	if _, ok := h.viewer(c); !ok {
		return unauthorized(c)
	}

	if err := h.catalog.IncrementPurchased(c.Params("id")); err != nil {
		if errors.Is(err, catalog.ErrModelNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Model not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update purchase counter",
		})
	}
	return c.JSON(fiber.Map{"message": "Purchase counter updated"})
}

func (h *ModelHandler) mutationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, catalog.ErrModelNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Model not found",
		})
	case errors.Is(err, catalog.ErrNotOwner):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
}

func (h *ModelHandler) viewer(c *fiber.Ctx) (*session.Snapshot, bool) {
	uid, err := session.FromRequest(c)
	if err != nil || uid == uuid.Nil {
		return nil, false
	}
	snap, err := h.sessions.Current(uid)
	if err != nil {
		return nil, false
	}
	return snap, true
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
