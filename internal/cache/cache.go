// Package cache provides the content-addressed, TTL-based cache that
// shields the upstream registrar API from redundant calls.
package cache

import "time"

// Stats describes the cache contents for operators. Expired entries that
// have not been purged yet are counted separately from live ones so an
// operator can judge whether an explicit Clear is worthwhile.
type Stats struct {
	TotalEntries   int64 `json:"total_files"`
	TotalSizeBytes int64 `json:"total_size"`
	ExpiredCount   int64 `json:"expired_files"`
}

// Cache stores normalized upstream payloads keyed by request fingerprint
type Cache interface {
	// Get returns the cached payload for a fingerprint. An entry whose TTL
	// has passed behaves as a miss.
	Get(fingerprint string) ([]byte, bool)

	// Put stores a payload under a fingerprint with a per-entry TTL
	Put(fingerprint string, payload []byte, ttl time.Duration) error

	// Stats reports entry counts and total size, counting expired entries
	// separately
	Stats() Stats

	// Clear wipes the whole cache. It never errors on an empty cache.
	Clear() error
}
