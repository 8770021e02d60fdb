package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/modelmart/backend/internal/models"
)

// GetListing retrieves a cached listing by id.
// Returns ErrCacheMiss if not present.
func (c *Cache) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	raw, err := c.client.Get(ctx, listingKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var listing models.Listing
	if err := json.Unmarshal(raw, &listing); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		c.client.Del(ctx, listingKeyPrefix+id)
		return nil, ErrCacheMiss
	}
	return &listing, nil
}

// SetListing stores a listing with the default TTL.
func (c *Cache) SetListing(ctx context.Context, listing *models.Listing) error {
	raw, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("marshal listing: %w", err)
	}
	if err := c.client.Set(ctx, listingKeyPrefix+listing.ID, raw, DefaultListingTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache listing: %w", err)
	}
	return nil
}

// DeleteListing removes a listing from cache. Called on every mutation,
// including the advisory counter bump, so reads never serve a stale row
// for longer than one round trip.
func (c *Cache) DeleteListing(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, listingKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete listing from cache: %w", err)
	}
	return nil
}
