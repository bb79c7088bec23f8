package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"media-aggregator/domain/repository"
)

// mapStore is an in-memory IPersistentCache used across the package tests.
type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	failSet bool
}

func newMapStore() *mapStore {
	return &mapStore{data: map[string][]byte{}}
}

var errStoreDown = errors.New("store down")

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errStoreDown
	}
	v, ok := s.data[key]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet {
		return errStoreDown
	}
	s.data[key] = value
	return nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *mapStore) DeletePrefix(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
		}
	}
	return nil
}

func (s *mapStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok
}

// fakeClock is a settable clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(store *mapStore, clock *fakeClock) *TieredCache {
	var s repository.IPersistentCache
	if store != nil {
		s = store
	}
	c := NewTieredCache(s, TieredCacheConfig{Keys: KeyBuilder{Namespace: "test", Version: "v1"}})
	c.now = clock.Now
	return c
}
