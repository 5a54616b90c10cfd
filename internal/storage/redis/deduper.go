package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper records fired reminder keys with SETNX so that several relay
// processes sharing one Redis fire each reminder once.
type Deduper struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewDeduper returns a Deduper whose keys expire after ttl.
func NewDeduper(rdb *redis.Client, prefix string, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, prefix: prefix + "reminder:", ttl: ttl}
}

// AcquireOnce reports whether key is seen for the first time.
// It fails open: when Redis is unavailable it returns true.
func (d *Deduper) AcquireOnce(ctx context.Context, key string) bool {
	ok, err := d.rdb.SetNX(ctx, d.prefix+key, 1, d.ttl).Result()
	if err != nil {
		slog.Warn("Redis dedup check failed, allowing reminder", "key", key, "error", err)
		return true
	}
	return ok
}

// Release deletes key so a failed delivery can be retried.
func (d *Deduper) Release(ctx context.Context, key string) {
	if err := d.rdb.Del(ctx, d.prefix+key).Err(); err != nil {
		slog.Warn("Redis dedup release failed", "key", key, "error", err)
	}
}
