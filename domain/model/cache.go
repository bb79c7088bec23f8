package model

import (
	"encoding/json"
	"time"
)

// CacheEntry is the envelope both cache tiers store. Data holds the JSON
// encoding of the cached value so every read decodes a private copy.
type CacheEntry struct {
	Data      json.RawMessage `json:"data"`
	StoredAt  time.Time       `json:"storedAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

// Expired reports whether the entry is past its expiry at now.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// CacheStats are process-lifetime counters, reset only by an explicit clear.
type CacheStats struct {
	MemoryHits     int64   `json:"memoryHits"`
	PersistentHits int64   `json:"persistentHits"`
	StaleHits      int64   `json:"staleHits"`
	FallbackHits   int64   `json:"fallbackHits"`
	FetchAttempts  int64   `json:"apiCalls"`
	TotalRequests  int64   `json:"totalRequests"`
	MemorySize     int     `json:"memorySize"`
	HitRate        float64 `json:"hitRate"`
	Efficiency     float64 `json:"efficiency"`
}
