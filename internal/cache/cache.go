// Package cache holds fetched HTML snapshots so the logo pass and closely
// spaced runs can reuse a page without refetching it.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/settlewatch/settlewatch/internal/model"
)

// Cache is a byte-blob cache with per-entry TTL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for a page URL.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "settlewatch:v1:" + hex.EncodeToString(sum[:])
}

// FromConfig builds the snapshot cache described by cfg: memory-only when no
// directory is configured, memory backed by disk otherwise. Returns nil when
// caching is disabled.
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemory(cfg.MemoryTTL)
	}
	return NewLayered(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
