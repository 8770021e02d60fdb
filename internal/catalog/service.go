// Package catalog owns the model listing records: browsing, publishing,
// owner-gated mutation, and the advisory purchase counter.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/modelmart/backend/internal/cache"
	"github.com/modelmart/backend/internal/dto"
	"github.com/modelmart/backend/internal/models"
)

// ListFilter narrows ListModels. Zero value returns everything.
type ListFilter struct {
	Category   string
	OwnerEmail string
	// LimitLatest truncates to the newest N listings. "Newest" is ULID id
	// order, not a timestamp sort.
	LimitLatest int
}

type Service struct {
	db    *gorm.DB
	cache *cache.Cache // nil disables caching
}

func NewService(db *gorm.DB, c *cache.Cache) *Service {
	return &Service{db: db, cache: c}
}

// ListModels returns listings newest-first (id descending; ids are ULIDs,
// so lexicographic order tracks creation time).
func (s *Service) ListModels(filter ListFilter) ([]models.Listing, error) {
	q := s.db.Model(&models.Listing{}).Order("id DESC")
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.OwnerEmail != "" {
		q = q.Where("developer_email = ?", filter.OwnerEmail)
	}
	if filter.LimitLatest > 0 {
		q = q.Limit(filter.LimitLatest)
	}

	var listings []models.Listing
	if err := q.Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return listings, nil
}

// GetModel fetches one listing, consulting the cache first when enabled.
func (s *Service) GetModel(id string) (*models.Listing, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetListing(context.Background(), id); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			slog.Warn("listing cache read failed", "model_id", id, "error", err)
		}
	}

	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to fetch model: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetListing(context.Background(), &listing); err != nil {
			slog.Warn("listing cache write failed", "model_id", id, "error", err)
		}
	}
	return &listing, nil
}

// CreateModel publishes a new listing owned by developerEmail. All display
// fields are required; validation happens before any write.
func (s *Service) CreateModel(developerEmail string, req *dto.CreateModelRequest) (*models.Listing, error) {
	missing := missingFields(req)
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	listing := models.Listing{
		ID:             ulid.Make().String(),
		ModelName:      req.ModelName,
		Category:       req.Category,
		Framework:      req.Framework,
		UseCase:        req.UseCase,
		Dataset:        req.Dataset,
		Description:    req.Description,
		ImageURL:       req.ImageURL,
		DeveloperEmail: developerEmail,
		Purchased:      0,
	}

	if err := s.db.Create(&listing).Error; err != nil {
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	return &listing, nil
}

// UpdateModel applies a partial update. The caller's email must match the
// listing's developer email or the update is rejected with ErrNotOwner.
func (s *Service) UpdateModel(id string, callerEmail string, req *dto.UpdateModelRequest) (*models.Listing, error) {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to fetch model: %w", err)
	}

	if listing.DeveloperEmail != callerEmail {
		return nil, ErrNotOwner
	}

	updates := map[string]interface{}{}
	if req.ModelName != "" {
		updates["model_name"] = req.ModelName
	}
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.Framework != "" {
		updates["framework"] = req.Framework
	}
	if req.UseCase != "" {
		updates["use_case"] = req.UseCase
	}
	if req.Dataset != "" {
		updates["dataset"] = req.Dataset
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}

	if len(updates) > 0 {
		if err := s.db.Model(&listing).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update model: %w", err)
		}
		s.invalidate(id)
	}
	return &listing, nil
}

// DeleteModel removes a listing owned by callerEmail and reports how many
// rows went away (0 or 1).
func (s *Service) DeleteModel(id string, callerEmail string) (int64, error) {
	var listing models.Listing
	if err := s.db.First(&listing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrModelNotFound
		}
		return 0, fmt.Errorf("failed to fetch model: %w", err)
	}

	if listing.DeveloperEmail != callerEmail {
		return 0, ErrNotOwner
	}

	result := s.db.Delete(&models.Listing{}, "id = ?", id)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete model: %w", result.Error)
	}
	s.invalidate(id)
	return result.RowsAffected, nil
}

// IncrementPurchased bumps the advisory purchase counter. The counter is
// denormalized display data; the receipt ledger stays authoritative, so a
// failure here is the caller's to log, not to fail a purchase over.
func (s *Service) IncrementPurchased(id string) error {
	result := s.db.Model(&models.Listing{}).
		Where("id = ?", id).
		UpdateColumn("purchased", gorm.Expr("purchased + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to increment purchase counter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrModelNotFound
	}
	s.invalidate(id)
	return nil
}

func (s *Service) invalidate(id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteListing(context.Background(), id); err != nil {
		slog.Warn("listing cache invalidation failed", "model_id", id, "error", err)
	}
}

func missingFields(req *dto.CreateModelRequest) []string {
	var missing []string
	if req.ModelName == "" {
		missing = append(missing, "modelName")
	}
	if req.Category == "" {
		missing = append(missing, "category")
	}
	if req.Framework == "" {
		missing = append(missing, "framework")
	}
	if req.UseCase == "" {
		missing = append(missing, "useCase")
	}
	if req.Dataset == "" {
		missing = append(missing, "dataset")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if req.ImageURL == "" {
		missing = append(missing, "imageUrl")
	}
	return missing
}
