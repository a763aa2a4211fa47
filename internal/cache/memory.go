package cache

import (
	"sync"
	"time"
)

// memoryEntry is one in-memory cache entry
type memoryEntry struct {
	payload   []byte
	createdAt time.Time
	expiresAt time.Time
}

// MemoryCache is an in-memory Cache with the same semantics as FileCache.
// Used by tests and available for cacheless single-process deployments.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Cache
func (m *MemoryCache) Get(fingerprint string) ([]byte, bool) {
	m.mu.RLock()
	entry, ok := m.entries[fingerprint]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, fingerprint)
		m.mu.Unlock()
		return nil, false
	}

	return entry.payload, true
}

// Put implements Cache
func (m *MemoryCache) Put(fingerprint string, payload []byte, ttl time.Duration) error {
	now := m.now()
	m.mu.Lock()
	m.entries[fingerprint] = memoryEntry{
		payload:   payload,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	m.mu.Unlock()
	return nil
}

// Stats implements Cache
func (m *MemoryCache) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats Stats
	now := m.now()
	for _, entry := range m.entries {
		stats.TotalEntries++
		stats.TotalSizeBytes += int64(len(entry.payload))
		if now.After(entry.expiresAt) {
			stats.ExpiredCount++
		}
	}
	return stats
}

// Clear implements Cache
func (m *MemoryCache) Clear() error {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
