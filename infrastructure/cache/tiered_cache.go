package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"media-aggregator/domain/model"
	"media-aggregator/domain/repository"
	"media-aggregator/infrastructure/logger"
	"media-aggregator/infrastructure/utils"
)

// TieredCache is a two-tier key/value cache. Tier 1 is a bounded in-memory
// LRU; tier 2 is an optional IPersistentCache that survives restarts.
// Tier-2 failures are logged and treated as misses.
type TieredCache struct {
	memory           *memoryTier
	store            repository.IPersistentCache
	keys             KeyBuilder
	compactThreshold int
	staleRetention   time.Duration
	stats            stats
	now              func() time.Time
}

// TieredCacheConfig configures a TieredCache. Zero values take the defaults.
type TieredCacheConfig struct {
	Keys             KeyBuilder
	MemoryCapacity   int
	CompactThreshold int
	// StaleRetention is how long past expiry a tier-2 entry stays readable
	// as stale data before a read deletes it.
	StaleRetention time.Duration
}

// DefaultStaleRetention keeps expired tier-2 entries for 30 days.
const DefaultStaleRetention = 30 * 24 * time.Hour

// NewTieredCache creates a TieredCache over store. store may be nil, in
// which case only the memory tier is used.
func NewTieredCache(store repository.IPersistentCache, cfg TieredCacheConfig) *TieredCache {
	threshold := cfg.CompactThreshold
	if threshold <= 0 {
		threshold = DefaultCompactThreshold
	}
	retention := cfg.StaleRetention
	if retention <= 0 {
		retention = DefaultStaleRetention
	}
	return &TieredCache{
		memory:           newMemoryTier(cfg.MemoryCapacity),
		store:            store,
		keys:             cfg.Keys,
		compactThreshold: threshold,
		staleRetention:   retention,
		now:              utils.GetCurrentTime,
	}
}

// Keys returns the builder used for this cache's key namespace.
func (c *TieredCache) Keys() KeyBuilder {
	return c.keys
}

// Get returns a fresh entry for key. Tier 1 is consulted first; a tier-2
// hit is promoted into tier 1 keeping its original expiry. An expired
// tier-2 entry is a miss; it is deleted once it is also past the stale
// retention window, until then GetStale can still serve it.
func (c *TieredCache) Get(ctx context.Context, key string) (*model.CacheEntry, bool) {
	c.stats.totalRequests.Add(1)
	now := c.now()

	if e, ok := c.memory.get(key, now); ok {
		c.stats.memoryHits.Add(1)
		logger.GetLogger().WithField("key", key).Debug("Memory cache hit")
		return &model.CacheEntry{Data: e.data, StoredAt: e.storedAt, ExpiresAt: e.expiresAt}, true
	}

	entry, ok := c.readStore(ctx, key)
	if !ok {
		return nil, false
	}
	if entry.Expired(now) {
		if !now.After(entry.ExpiresAt.Add(c.staleRetention)) {
			return nil, false
		}
		if err := c.store.Delete(ctx, key); err != nil {
			logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Failed to delete expired persistent cache entry")
		}
		return nil, false
	}

	c.stats.persistentHits.Add(1)
	c.memory.set(memoryEntry{key: key, data: entry.Data, storedAt: entry.StoredAt, expiresAt: entry.ExpiresAt})
	logger.GetLogger().WithField("key", key).Debug("Persistent cache hit")
	return entry, true
}

// GetStale returns the tier-2 entry for key regardless of expiry. It does
// not touch tier 1 or the hit counters.
func (c *TieredCache) GetStale(ctx context.Context, key string) (*model.CacheEntry, bool) {
	return c.readStore(ctx, key)
}

// Set writes data under key to both tiers with the given time to live.
func (c *TieredCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	now := c.now()
	entry := model.CacheEntry{Data: data, StoredAt: now, ExpiresAt: now.Add(ttl)}

	if evicted := c.memory.set(memoryEntry{key: key, data: data, storedAt: entry.StoredAt, expiresAt: entry.ExpiresAt}); evicted != "" {
		logger.GetLogger().WithField("key", evicted).Debug("Evicted least recently used memory entry")
	}

	if c.store == nil {
		return
	}
	envelope, err := json.Marshal(entry)
	if err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Error("Failed to encode cache entry")
		return
	}
	if err := c.store.Set(ctx, key, compact(envelope, c.compactThreshold), entry.ExpiresAt); err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Failed to write persistent cache entry")
	}
}

// Delete removes key from both tiers.
func (c *TieredCache) Delete(ctx context.Context, key string) {
	c.memory.delete(key)
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, key); err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Failed to delete persistent cache entry")
	}
}

// Clear empties tier 1, removes every tier-2 key in this cache's namespace
// and resets the counters.
func (c *TieredCache) Clear(ctx context.Context) error {
	c.memory.clear()
	c.stats.reset()
	if c.store == nil {
		return nil
	}
	return c.store.DeletePrefix(ctx, c.keys.Prefix())
}

// Stats returns a snapshot of the counters.
func (c *TieredCache) Stats() model.CacheStats {
	return c.stats.snapshot(c.memory.len())
}

func (c *TieredCache) readStore(ctx context.Context, key string) (*model.CacheEntry, bool) {
	if c.store == nil {
		return nil, false
	}
	payload, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Failed to read persistent cache entry")
		}
		return nil, false
	}
	envelope, err := decompact(payload)
	if err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Discarding unreadable persistent cache entry")
		return nil, false
	}
	var entry model.CacheEntry
	if err := json.Unmarshal(envelope, &entry); err != nil {
		logger.GetLogger().WithField("key", key).WithField("error", err).Warn("Discarding unreadable persistent cache entry")
		return nil, false
	}
	return &entry, true
}
