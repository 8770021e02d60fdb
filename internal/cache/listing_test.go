package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelmart/backend/internal/models"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func sampleListing() *models.Listing {
	return &models.Listing{
		ID:             "01J0000000000000000000TEST",
		ModelName:      "Forecaster",
		Category:       "Time Series",
		Framework:      "PyTorch",
		UseCase:        "Demand forecasting",
		Dataset:        "M5",
		Description:    "Probabilistic demand forecasts.",
		ImageURL:       "https://example.com/f.png",
		DeveloperEmail: "dev@x.com",
		Purchased:      3,
	}
}

func TestSetGetListing(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	listing := sampleListing()
	require.NoError(t, c.SetListing(ctx, listing))

	got, err := c.GetListing(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing.ModelName, got.ModelName)
	assert.Equal(t, listing.Purchased, got.Purchased)
}

func TestGetListing_Miss(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.GetListing(context.Background(), "01J0000000000000000000MISS")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestDeleteListing(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	listing := sampleListing()
	require.NoError(t, c.SetListing(ctx, listing))
	require.NoError(t, c.DeleteListing(ctx, listing.ID))

	_, err := c.GetListing(ctx, listing.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGetListing_CorruptEntryTreatedAsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(listingKeyPrefix+"bad", "not-json"))

	_, err := c.GetListing(ctx, "bad")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// The corrupt entry was dropped.
	assert.False(t, mr.Exists(listingKeyPrefix+"bad"))
}

func TestSetListing_TTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	listing := sampleListing()
	require.NoError(t, c.SetListing(ctx, listing))

	mr.FastForward(DefaultListingTTL + 1)

	_, err := c.GetListing(ctx, listing.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
