package cache

import (
	"bytes"
	"container/list"
	"sync"
	"time"
)

// DefaultMemoryCapacity bounds the in-memory tier.
const DefaultMemoryCapacity = 1000

type memoryEntry struct {
	key       string
	data      []byte
	storedAt  time.Time
	expiresAt time.Time
}

// memoryTier is a bounded LRU map. The front of order is the most recently
// used key; every hit and every write moves the key to the front.
type memoryTier struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List
}

func newMemoryTier(capacity int) *memoryTier {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &memoryTier{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// get returns a copy of the entry for key. An entry expired at now is
// removed and reported as a miss.
func (m *memoryTier) get(key string, now time.Time) (memoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return memoryEntry{}, false
	}
	entry := el.Value.(*memoryEntry)
	if now.After(entry.expiresAt) {
		m.removeElement(el)
		return memoryEntry{}, false
	}
	m.order.MoveToFront(el)
	out := *entry
	out.data = bytes.Clone(entry.data)
	return out, true
}

// set stores a copy of entry under its key and returns the key evicted to
// make room, if any.
func (m *memoryTier) set(entry memoryEntry) (evicted string) {
	entry.data = bytes.Clone(entry.data)

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[entry.key]; ok {
		*el.Value.(*memoryEntry) = entry
		m.order.MoveToFront(el)
		return ""
	}

	if m.order.Len() >= m.capacity {
		if oldest := m.order.Back(); oldest != nil {
			evicted = oldest.Value.(*memoryEntry).key
			m.removeElement(oldest)
		}
	}
	e := entry
	m.items[entry.key] = m.order.PushFront(&e)
	return evicted
}

func (m *memoryTier) delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.removeElement(el)
	}
}

func (m *memoryTier) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element, m.capacity)
	m.order.Init()
}

func (m *memoryTier) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *memoryTier) removeElement(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*memoryEntry).key)
}
