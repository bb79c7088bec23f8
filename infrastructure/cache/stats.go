package cache

import (
	"sync/atomic"

	"media-aggregator/domain/model"
)

type stats struct {
	memoryHits     atomic.Int64
	persistentHits atomic.Int64
	staleHits      atomic.Int64
	fallbackHits   atomic.Int64
	fetchAttempts  atomic.Int64
	totalRequests  atomic.Int64
}

func (s *stats) reset() {
	s.memoryHits.Store(0)
	s.persistentHits.Store(0)
	s.staleHits.Store(0)
	s.fallbackHits.Store(0)
	s.fetchAttempts.Store(0)
	s.totalRequests.Store(0)
}

func (s *stats) snapshot(memorySize int) model.CacheStats {
	out := model.CacheStats{
		MemoryHits:     s.memoryHits.Load(),
		PersistentHits: s.persistentHits.Load(),
		StaleHits:      s.staleHits.Load(),
		FallbackHits:   s.fallbackHits.Load(),
		FetchAttempts:  s.fetchAttempts.Load(),
		TotalRequests:  s.totalRequests.Load(),
		MemorySize:     memorySize,
	}
	hits := out.MemoryHits + out.PersistentHits
	if out.TotalRequests > 0 {
		out.HitRate = float64(hits) / float64(out.TotalRequests) * 100
	}
	if out.FetchAttempts > 0 {
		out.Efficiency = float64(hits) / float64(out.FetchAttempts)
	}
	return out
}
