// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// listing.go provides a Valkey-backed cache for rendered JSON listing
// responses (published feed, trending, popular). A cache failure is never
// fatal — callers fall through to PostgreSQL on miss or error.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// listingKeyPrefix namespaces listing keys in Valkey.
	listingKeyPrefix = "listing:"

	// DefaultListingTTL is how long a listing payload stays cached. Kept
	// short so view-count ordering in trending/popular doesn't go stale.
	DefaultListingTTL = 60 * time.Second
)

// ListingCache stores serialized listing responses in Valkey.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a listing cache backed by the given Valkey client.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl == 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// Get retrieves a cached listing payload. Returns (nil, false) on miss.
func (lc *ListingCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := lc.client.Get(ctx, listingKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("listing cache get error", "key", key, "error", err)
		return nil, false
	}
	slog.Debug("listing cache hit", "key", key)
	return val, true
}

// Set stores a listing payload with the configured TTL.
func (lc *ListingCache) Set(ctx context.Context, key string, payload []byte) {
	if err := lc.client.Set(ctx, listingKeyPrefix+key, payload, lc.ttl).Err(); err != nil {
		slog.Warn("listing cache set error", "key", key, "error", err)
	}
}

// InvalidateAll removes every cached listing by scanning for the prefix.
// Called whenever a post is created, updated, deleted, or changes status,
// since any of those can affect any listing.
func (lc *ListingCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := lc.client.Scan(ctx, cursor, listingKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("listing cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := lc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("listing cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Debug("listing cache cleared", "deleted", deleted)
	}
}

// PublishedKey returns the cache key for the public published feed.
func PublishedKey() string {
	return "published"
}

// TrendingKey returns the cache key for a trending listing of the given size.
func TrendingKey(limit int) string {
	return fmt.Sprintf("trending:%d", limit)
}

// PopularKey returns the cache key for a popular listing of the given size.
func PopularKey(limit int) string {
	return fmt.Sprintf("popular:%d", limit)
}
