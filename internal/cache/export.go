// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	exportKeyPrefix = "export:"

	// DefaultExportTTL is how long a rasterized certificate stays cached.
	DefaultExportTTL = time.Hour

	// MaxCachedExport skips caching unusually large PNGs.
	MaxCachedExport = 8 << 20

	clearBatch = 200
)

// ExportCache keeps rasterized certificates in Valkey, keyed by the hash
// of the rendered export view. An unchanged certificate is rasterized
// once and every later download returns the same bytes. Cache failures
// are logged and treated as misses.
type ExportCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewExportCache creates an export cache; a zero ttl means DefaultExportTTL.
func NewExportCache(client redis.UniversalClient, ttl time.Duration) *ExportCache {
	if ttl <= 0 {
		ttl = DefaultExportTTL
	}
	return &ExportCache{client: client, ttl: ttl}
}

// Get returns the cached PNG for key.
func (ec *ExportCache) Get(ctx context.Context, key string) ([]byte, bool) {
	png, err := ec.client.Get(ctx, exportKeyPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false
	case err != nil:
		slog.Warn("export cache get", "key", shortKey(key), "error", err)
		return nil, false
	}
	slog.Debug("export cache hit", "key", shortKey(key), "bytes", len(png))
	return png, true
}

// Set stores png under key unless it exceeds MaxCachedExport.
func (ec *ExportCache) Set(ctx context.Context, key string, png []byte) {
	if len(png) > MaxCachedExport {
		slog.Debug("export too large to cache", "key", shortKey(key), "bytes", len(png))
		return
	}
	if err := ec.client.Set(ctx, exportKeyPrefix+key, png, ec.ttl).Err(); err != nil {
		slog.Warn("export cache set", "key", shortKey(key), "error", err)
	}
}

// InvalidateAll unlinks every cached export and returns how many were
// removed. Run it after changing the certificate template or persona.
func (ec *ExportCache) InvalidateAll(ctx context.Context) (int, error) {
	removed := 0
	batch := make([]string, 0, clearBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := ec.client.Unlink(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}

	iter := ec.client.Scan(ctx, 0, exportKeyPrefix+"*", clearBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == clearBatch {
			if err := flush(); err != nil {
				return removed, fmt.Errorf("export cache clear: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("export cache scan: %w", err)
	}
	if err := flush(); err != nil {
		return removed, fmt.Errorf("export cache clear: %w", err)
	}

	slog.Info("export cache cleared", "removed", removed)
	return removed, nil
}

// ExportKey returns the cache key for a rendered export view.
func ExportKey(html []byte) string {
	sum := sha256.Sum256(html)
	return hex.EncodeToString(sum[:])
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
