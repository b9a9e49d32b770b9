// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed full-page cache for public pages.
// A rendered page is stored under a key derived from its request path so
// repeat requests skip the database queries and template execution.
//
// A nil *PageCache is valid and behaves as a cache that never hits, which
// is how the application runs when no Valkey host is configured.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "picoblog:page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// Page is a cached response body together with its content type.
type Page struct {
	ContentType string
	Body        []byte
}

// PageCache manages full-page caching in Valkey.
type PageCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Get retrieves a cached page. The second result is false on a miss.
func (pc *PageCache) Get(ctx context.Context, key string) (Page, bool) {
	if pc == nil {
		return Page{}, false
	}
	vals, err := pc.client.HMGet(ctx, pageKeyPrefix+key, "type", "body").Result()
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		return Page{}, false
	}
	ct, ok1 := vals[0].(string)
	body, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return Page{}, false
	}
	slog.Debug("page cache hit", "key", key)
	return Page{ContentType: ct, Body: []byte(body)}, true
}

// Set stores a rendered page with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, page Page) {
	if pc == nil {
		return
	}
	k := pageKeyPrefix + key
	_, err := pc.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, "type", page.ContentType, "body", page.Body)
		p.Expire(ctx, k, pc.ttl)
		return nil
	})
	if err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// InvalidatePage removes a single page from the cache.
func (pc *PageCache) InvalidatePage(ctx context.Context, key string) {
	if pc == nil {
		return
	}
	if err := pc.client.Del(ctx, pageKeyPrefix+key).Err(); err != nil {
		slog.Warn("page cache invalidate error", "key", key, "error", err)
		return
	}
	slog.Debug("page cache invalidated", "key", key)
}

// InvalidateAll removes all cached pages by scanning for the prefix.
// Any article change can alter the tag cloud, archive and feed, so every
// page is dropped.
func (pc *PageCache) InvalidateAll(ctx context.Context) int {
	if pc == nil {
		return 0
	}
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return deleted
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			} else {
				deleted += len(keys)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache fully cleared", "deleted", deleted)
	}
	return deleted
}

// PathKey returns the cache key for a request path. The empty path maps to
// the front page.
func PathKey(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
