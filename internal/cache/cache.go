// Package cache provides an optional Redis read-through cache for listing
// lookups. Every caller must tolerate a nil *Cache: no Redis configured
// means no caching, never an error.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	listingKeyPrefix = "listing:"

	// DefaultListingTTL is the TTL for cached listing data.
	DefaultListingTTL = 10 * time.Minute
)

// ErrCacheMiss is returned when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

type Cache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Cache{client: client}, nil
}

// NewFromClient wraps an existing client (used by tests).
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Close() error {
	return c.client.Close()
}
